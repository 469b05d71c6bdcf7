package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ListDoctors returns active doctors matching the name/specialization search
// and the optional department.
func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter) ([]Doctor, error) {
	f.Search = strings.TrimSpace(f.Search)
	doctors, err := s.repo.ListDoctors(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

// SetDoctorActive deactivates or reactivates a doctor. Admin only.
// An inactive doctor keeps its windows but accepts no bookings.
func (s *Service) SetDoctorActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) (*Doctor, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}
	d, err := s.repo.SetDoctorActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("set doctor active: %w", err)
	}
	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	deps, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return deps, nil
}

// ListPatients searches active patients by name or phone. Admin only.
func (s *Service) ListPatients(ctx context.Context, actor Actor, search string) ([]Patient, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}
	patients, err := s.repo.ListPatients(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// GetPatient returns a patient record. Patients may only read their own.
func (s *Service) GetPatient(ctx context.Context, actor Actor, id uuid.UUID) (*Patient, error) {
	if !actor.Role.IsValid() || (actor.Role == RolePatient && actor.ID != id) {
		return nil, ErrUnauthorized
	}
	p, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

type NewDoctor struct {
	FullName        string
	Specialization  string
	DepartmentID    uuid.UUID
	Phone           string
	Qualification   string
	ExperienceYears int
	ConsultationFee float64
}

// DoctorUpdate changes only the fields that are set.
type DoctorUpdate struct {
	FullName        *string
	Specialization  *string
	DepartmentID    *uuid.UUID
	Phone           *string
	Qualification   *string
	ExperienceYears *int
	ConsultationFee *float64
}

// PatientProfile is the full editable patient record. DateOfBirth is
// YYYY-MM-DD or empty.
type PatientProfile struct {
	FullName         string
	Phone            string
	Email            string
	DateOfBirth      string
	Gender           string
	BloodGroup       string
	Address          string
	EmergencyContact string
}

type Dashboard struct {
	DashboardCounts
	Departments []Department
}

func (s *Service) requireDepartment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetDepartmentByID(ctx, id); err != nil {
		if errors.Is(err, ErrDepartmentNotFound) {
			return fmt.Errorf("%w: unknown department %s", ErrValidation, id)
		}
		return fmt.Errorf("load department: %w", err)
	}
	return nil
}

func validateDoctor(d Doctor) error {
	switch {
	case d.FullName == "":
		return fmt.Errorf("%w: full name is required", ErrValidation)
	case d.Specialization == "":
		return fmt.Errorf("%w: specialization is required", ErrValidation)
	case d.DepartmentID == uuid.Nil:
		return fmt.Errorf("%w: department is required", ErrValidation)
	case d.ExperienceYears < 0:
		return fmt.Errorf("%w: experience years must not be negative", ErrValidation)
	case d.ConsultationFee < 0:
		return fmt.Errorf("%w: consultation fee must not be negative", ErrValidation)
	}
	return nil
}

// CreateDoctor registers an active doctor. Admin only.
func (s *Service) CreateDoctor(ctx context.Context, actor Actor, in NewDoctor) (*Doctor, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}

	d := Doctor{
		FullName:        strings.TrimSpace(in.FullName),
		Specialization:  strings.TrimSpace(in.Specialization),
		DepartmentID:    in.DepartmentID,
		Phone:           strings.TrimSpace(in.Phone),
		Qualification:   strings.TrimSpace(in.Qualification),
		ExperienceYears: in.ExperienceYears,
		ConsultationFee: in.ConsultationFee,
		Active:          true,
	}
	if err := validateDoctor(d); err != nil {
		return nil, err
	}
	if err := s.requireDepartment(ctx, d.DepartmentID); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateDoctor(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return created, nil
}

// UpdateDoctor edits a doctor's profile. Admin only. The active flag is
// changed through SetDoctorActive.
func (s *Service) UpdateDoctor(ctx context.Context, actor Actor, id uuid.UUID, in DoctorUpdate) (*Doctor, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}

	current, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	d := *current

	if in.FullName != nil {
		d.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Specialization != nil {
		d.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.Phone != nil {
		d.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Qualification != nil {
		d.Qualification = strings.TrimSpace(*in.Qualification)
	}
	if in.ExperienceYears != nil {
		d.ExperienceYears = *in.ExperienceYears
	}
	if in.ConsultationFee != nil {
		d.ConsultationFee = *in.ConsultationFee
	}
	if err := validateDoctor(d); err != nil {
		return nil, err
	}
	if in.DepartmentID != nil && *in.DepartmentID != current.DepartmentID {
		if err := s.requireDepartment(ctx, *in.DepartmentID); err != nil {
			return nil, err
		}
		d.DepartmentID = *in.DepartmentID
	}

	updated, err := s.repo.UpdateDoctor(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return updated, nil
}

func patientFromProfile(in PatientProfile) (Patient, error) {
	p := Patient{
		FullName:         strings.TrimSpace(in.FullName),
		Phone:            strings.TrimSpace(in.Phone),
		Gender:           strings.TrimSpace(in.Gender),
		BloodGroup:       strings.TrimSpace(in.BloodGroup),
		Address:          strings.TrimSpace(in.Address),
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
	}
	if p.FullName == "" {
		return Patient{}, fmt.Errorf("%w: full name is required", ErrValidation)
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		p.Email = &email
	}
	dob, err := parseOptionalDate(in.DateOfBirth)
	if err != nil {
		return Patient{}, err
	}
	p.DateOfBirth = dob
	return p, nil
}

// CreatePatient registers an active patient. Admin only.
func (s *Service) CreatePatient(ctx context.Context, actor Actor, in PatientProfile) (*Patient, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}
	p, err := patientFromProfile(in)
	if err != nil {
		return nil, err
	}
	p.Active = true

	created, err := s.repo.CreatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

// UpdatePatient replaces a patient's profile. Admins may edit anyone,
// patients only themselves.
func (s *Service) UpdatePatient(ctx context.Context, actor Actor, id uuid.UUID, in PatientProfile) (*Patient, error) {
	switch {
	case actor.Role == RoleAdmin:
	case actor.Role == RolePatient && actor.ID == id:
	default:
		return nil, ErrUnauthorized
	}

	p, err := patientFromProfile(in)
	if err != nil {
		return nil, err
	}
	p.ID = id

	updated, err := s.repo.UpdatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}

// SetPatientActive deactivates or reactivates a patient. Admin only.
// Existing appointments are kept; an inactive patient cannot book.
func (s *Service) SetPatientActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) (*Patient, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}
	p, err := s.repo.SetPatientActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("set patient active: %w", err)
	}
	return p, nil
}

// GetDepartment returns a department with its active doctors.
func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, []Doctor, error) {
	dep, err := s.repo.GetDepartmentByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get department: %w", err)
	}
	doctors, err := s.repo.ListDoctors(ctx, DoctorFilter{DepartmentID: &id})
	if err != nil {
		return nil, nil, fmt.Errorf("list department doctors: %w", err)
	}
	return dep, doctors, nil
}

// ListDoctorPatients returns the patients a doctor has seen or will see.
// The doctor themself and admins may read it.
func (s *Service) ListDoctorPatients(ctx context.Context, actor Actor, doctorID uuid.UUID) ([]Patient, error) {
	switch {
	case actor.Role == RoleAdmin:
	case actor.Role == RoleDoctor && actor.ID == doctorID:
	default:
		return nil, ErrUnauthorized
	}

	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	patients, err := s.repo.ListDoctorPatients(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor patients: %w", err)
	}
	return patients, nil
}

// Dashboard summarizes the hospital for admins.
func (s *Service) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	if actor.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}

	counts, err := s.repo.DashboardCounts(ctx, s.Today())
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	deps, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return &Dashboard{DashboardCounts: *counts, Departments: deps}, nil
}
