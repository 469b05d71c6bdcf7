package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "Booked"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Booked is the only non-terminal status.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	return s == StatusBooked && (next == StatusCompleted || next == StatusCancelled)
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Actor is the authenticated caller as supplied by the session layer.
// For doctors and patients ID is their profile id.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type Department struct {
	ID          uuid.UUID
	Name        string
	Description string
	DoctorCount int
	CreatedAt   time.Time
}

type Doctor struct {
	ID              uuid.UUID
	FullName        string
	Specialization  string
	DepartmentID    uuid.UUID
	DepartmentName  string
	Phone           string
	Qualification   string
	ExperienceYears int
	ConsultationFee float64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Patient struct {
	ID               uuid.UUID
	FullName         string
	Phone            string
	Email            *string
	DateOfBirth      *time.Time
	Gender           string
	BloodGroup       string
	Address          string
	EmergencyContact string
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AvailabilityWindow is a doctor's declared interval for one calendar date.
// Date is a UTC midnight.
type AvailabilityWindow struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	Date        time.Time
	StartTime   TimeOfDay
	EndTime     TimeOfDay
	IsAvailable bool
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	Time      TimeOfDay
	Status    AppointmentStatus
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Treatment struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Diagnosis     string
	Prescription  string
	Notes         string
	FollowUpDate  *time.Time
	CreatedAt     time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	PatientName          string
	PatientPhone         string
	DoctorName           string
	DoctorSpecialization string
	Treatment            *Treatment
}

// DayAvailability is one row of the doctor's weekly availability editor.
type DayAvailability struct {
	Date      time.Time
	Available bool
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

// DashboardCounts is the admin overview. Doctor and patient counts include
// active records only.
type DashboardCounts struct {
	ActiveDoctors     int
	ActivePatients    int
	TotalAppointments int
	TodayAppointments int
	UpcomingBooked    int
}

type DoctorFilter struct {
	Search       string
	DepartmentID *uuid.UUID
}

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	Date      *time.Time
}
