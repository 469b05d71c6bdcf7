package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
)

type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id" validate:"omitempty,uuid"`
	DoctorID        string `json:"doctor_id" validate:"required,uuid"`
	AppointmentDate string `json:"appointment_date" validate:"required"`
	AppointmentTime string `json:"appointment_time" validate:"required"`
	Reason          string `json:"reason" validate:"max=500"`
}

type CompleteAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis" validate:"max=2000"`
	Prescription string `json:"prescription" validate:"max=2000"`
	Notes        string `json:"notes" validate:"max=2000"`
	FollowUpDate string `json:"follow_up_date"`
}

type FollowUpRequest struct {
	FollowUpDate string `json:"follow_up_date"`
}

type WindowRequest struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable *bool  `json:"is_available" validate:"required"`
}

type DayRequest struct {
	Date      string `json:"date" validate:"required"`
	Available bool   `json:"available"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WeeklyAvailabilityRequest struct {
	Days []DayRequest `json:"days" validate:"required,max=31,dive"`
}

type CreateDoctorRequest struct {
	FullName        string  `json:"full_name" validate:"required,max=200"`
	Specialization  string  `json:"specialization" validate:"required,max=200"`
	DepartmentID    string  `json:"department_id" validate:"required,uuid"`
	Phone           string  `json:"phone" validate:"max=30"`
	Qualification   string  `json:"qualification" validate:"max=200"`
	ExperienceYears int     `json:"experience_years" validate:"gte=0,lte=80"`
	ConsultationFee float64 `json:"consultation_fee" validate:"gte=0"`
}

// UpdateDoctorRequest is a partial update: absent fields are left unchanged.
type UpdateDoctorRequest struct {
	FullName        *string  `json:"full_name" validate:"omitempty,min=1,max=200"`
	Specialization  *string  `json:"specialization" validate:"omitempty,min=1,max=200"`
	DepartmentID    *string  `json:"department_id" validate:"omitempty,uuid"`
	Phone           *string  `json:"phone" validate:"omitempty,max=30"`
	Qualification   *string  `json:"qualification" validate:"omitempty,max=200"`
	ExperienceYears *int     `json:"experience_years" validate:"omitempty,gte=0,lte=80"`
	ConsultationFee *float64 `json:"consultation_fee" validate:"omitempty,gte=0"`
}

type PatientRequest struct {
	FullName         string `json:"full_name" validate:"required,max=200"`
	Phone            string `json:"phone" validate:"max=30"`
	Email            string `json:"email" validate:"omitempty,email"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender" validate:"max=20"`
	BloodGroup       string `json:"blood_group" validate:"max=5"`
	Address          string `json:"address" validate:"max=500"`
	EmergencyContact string `json:"emergency_contact" validate:"max=100"`
}

type AppointmentResponse struct {
	ID              uuid.UUID          `json:"id"`
	PatientID       uuid.UUID          `json:"patient_id"`
	DoctorID        uuid.UUID          `json:"doctor_id"`
	AppointmentDate string             `json:"appointment_date"`
	AppointmentTime string             `json:"appointment_time"`
	Status          string             `json:"status"`
	Reason          string             `json:"reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	PatientName     string             `json:"patient_name,omitempty"`
	DoctorName      string             `json:"doctor_name,omitempty"`
	Specialization  string             `json:"doctor_specialization,omitempty"`
	Treatment       *TreatmentResponse `json:"treatment,omitempty"`
}

type TreatmentResponse struct {
	ID           uuid.UUID `json:"id"`
	Diagnosis    string    `json:"diagnosis"`
	Prescription string    `json:"prescription,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	FollowUpDate *string   `json:"follow_up_date"`
}

type CompleteAppointmentResponse struct {
	Appointment AppointmentResponse `json:"appointment"`
	Treatment   TreatmentResponse   `json:"treatment"`
}

type WindowResponse struct {
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

type DayResponse struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"full_name"`
	Specialization  string    `json:"specialization"`
	DepartmentID    uuid.UUID `json:"department_id"`
	Department      string    `json:"department"`
	Phone           string    `json:"phone,omitempty"`
	Qualification   string    `json:"qualification,omitempty"`
	ExperienceYears int       `json:"experience_years"`
	ConsultationFee float64   `json:"consultation_fee"`
	Active          bool      `json:"active"`
}

type DepartmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DoctorCount int       `json:"doctor_count"`
}

type PatientResponse struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"full_name"`
	Phone            string    `json:"phone,omitempty"`
	Email            *string   `json:"email,omitempty"`
	DateOfBirth      *string   `json:"date_of_birth,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	BloodGroup       string    `json:"blood_group,omitempty"`
	Address          string    `json:"address,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	Active           bool      `json:"active"`
}

type DepartmentDetailResponse struct {
	DepartmentResponse
	Doctors []DoctorResponse `json:"doctors"`
}

type DashboardResponse struct {
	ActiveDoctors     int                  `json:"active_doctors"`
	ActivePatients    int                  `json:"active_patients"`
	TotalAppointments int                  `json:"total_appointments"`
	TodayAppointments int                  `json:"today_appointments"`
	UpcomingBooked    int                  `json:"upcoming_booked"`
	Departments       []DepartmentResponse `json:"departments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func optionalDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := appointment.FormatDate(*d)
	return &s
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		AppointmentDate: appointment.FormatDate(a.Date),
		AppointmentTime: a.Time.String(),
		Status:          string(a.Status),
		Reason:          a.Reason,
		CreatedAt:       a.CreatedAt,
	}
}

func toDetailResponse(d *appointment.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(&d.Appointment)
	resp.PatientName = d.PatientName
	resp.DoctorName = d.DoctorName
	resp.Specialization = d.DoctorSpecialization
	if d.Treatment != nil {
		t := toTreatmentResponse(d.Treatment)
		resp.Treatment = &t
	}
	return resp
}

func toDetailResponses(list []appointment.AppointmentDetail) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toDetailResponse(&list[i]))
	}
	return out
}

func toTreatmentResponse(t *appointment.Treatment) TreatmentResponse {
	return TreatmentResponse{
		ID:           t.ID,
		Diagnosis:    t.Diagnosis,
		Prescription: t.Prescription,
		Notes:        t.Notes,
		FollowUpDate: optionalDate(t.FollowUpDate),
	}
}

func toWindowResponse(w *appointment.AvailabilityWindow) WindowResponse {
	return WindowResponse{
		Date:        appointment.FormatDate(w.Date),
		StartTime:   w.StartTime.String(),
		EndTime:     w.EndTime.String(),
		IsAvailable: w.IsAvailable,
	}
}

func toDoctorResponse(d *appointment.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:              d.ID,
		FullName:        d.FullName,
		Specialization:  d.Specialization,
		DepartmentID:    d.DepartmentID,
		Department:      d.DepartmentName,
		Phone:           d.Phone,
		Qualification:   d.Qualification,
		ExperienceYears: d.ExperienceYears,
		ConsultationFee: d.ConsultationFee,
		Active:          d.Active,
	}
}

func toPatientResponse(p *appointment.Patient) PatientResponse {
	return PatientResponse{
		ID:               p.ID,
		FullName:         p.FullName,
		Phone:            p.Phone,
		Email:            p.Email,
		DateOfBirth:      optionalDate(p.DateOfBirth),
		Gender:           p.Gender,
		BloodGroup:       p.BloodGroup,
		Address:          p.Address,
		EmergencyContact: p.EmergencyContact,
		Active:           p.Active,
	}
}

func toDepartmentResponse(d *appointment.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Description: d.Description, DoctorCount: d.DoctorCount}
}

func toDoctorResponses(doctors []appointment.Doctor) []DoctorResponse {
	out := make([]DoctorResponse, 0, len(doctors))
	for i := range doctors {
		out = append(out, toDoctorResponse(&doctors[i]))
	}
	return out
}

func toPatientResponses(patients []appointment.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(patients))
	for i := range patients {
		out = append(out, toPatientResponse(&patients[i]))
	}
	return out
}

func (p PatientRequest) profile() appointment.PatientProfile {
	return appointment.PatientProfile{
		FullName:         p.FullName,
		Phone:            p.Phone,
		Email:            p.Email,
		DateOfBirth:      p.DateOfBirth,
		Gender:           p.Gender,
		BloodGroup:       p.BloodGroup,
		Address:          p.Address,
		EmergencyContact: p.EmergencyContact,
	}
}
