package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrDepartmentNotFound  = fmt.Errorf("department %w", ErrNotFound)
	ErrWindowNotFound      = fmt.Errorf("availability window %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrTreatmentNotFound   = fmt.Errorf("treatment %w", ErrNotFound)

	// ErrStorageConflict is a uniqueness violation raised by the store,
	// typically a booking race lost to another writer.
	ErrStorageConflict = errors.New("storage conflict")
	ErrStorage         = errors.New("storage error")
)

// Repository contains all storage interactions needed by the service.
type Repository interface {
	// Directory
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context, search string) ([]Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	UpdatePatient(ctx context.Context, p Patient) (*Patient, error)
	SetPatientActive(ctx context.Context, id uuid.UUID, active bool) (*Patient, error)
	// ListDoctorPatients returns every patient with at least one appointment
	// with the doctor, in any status.
	ListDoctorPatients(ctx context.Context, doctorID uuid.UUID) ([]Patient, error)

	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// DoctorActive reads the active flag from the store of record. Booking
	// relies on it, so implementations must never serve it from a cache.
	DoctorActive(ctx context.Context, id uuid.UUID) (bool, error)
	ListDoctors(ctx context.Context, f DoctorFilter) ([]Doctor, error)
	CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	UpdateDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) (*Doctor, error)

	ListDepartments(ctx context.Context) ([]Department, error)
	GetDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error)

	DashboardCounts(ctx context.Context, today time.Time) (*DashboardCounts, error)

	// Availability
	GetWindow(ctx context.Context, doctorID uuid.UUID, date time.Time) (*AvailabilityWindow, error)
	UpsertWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error)
	// ReplaceWindows deletes the doctor's windows with from <= date <= to and
	// inserts ws, atomically.
	ReplaceWindows(ctx context.Context, doctorID uuid.UUID, from, to time.Time, ws []AvailabilityWindow) error
	ListWindows(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AvailabilityWindow, error)

	// For conflict checks
	ListDoctorAppointmentsOn(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]AppointmentDetail, error)

	// Creation and updates
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	// CompleteAppointment moves a Booked appointment to Completed and stores
	// the treatment in one transaction.
	CompleteAppointment(ctx context.Context, id uuid.UUID, t Treatment) (*Appointment, *Treatment, error)
	SetFollowUp(ctx context.Context, appointmentID uuid.UUID, followUp *time.Time) (*Treatment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
