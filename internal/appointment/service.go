package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/config"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventFollowUpChanged      = "TREATMENT_FOLLOW_UP_CHANGED"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation failed")
	ErrDiagnosisRequired = fmt.Errorf("%w: diagnosis is required", ErrValidation)
	ErrPatientInactive   = fmt.Errorf("%w: patient account is inactive", ErrUnauthorized)
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// SetClock replaces the time source used to compute "today".
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Today is the current calendar date in the configured location.
func (s *Service) Today() time.Time {
	now := s.now()
	if s.cfg.Location != nil {
		now = now.In(s.cfg.Location)
	}
	return DateOf(now)
}

type BookRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	Time      string
	Reason    string
}

// Book reserves the slot (doctor, date, time) for a patient.
// Bookings for the same doctor and date are serialized by the locker, and the
// store rejects a second Booked row for a slot, so concurrent requests for one
// slot yield exactly one appointment.
func (s *Service) Book(ctx context.Context, actor Actor, req BookRequest) (*Appointment, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	at, err := ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role == RoleAdmin:
	case actor.Role == RolePatient && actor.ID == req.PatientID:
	default:
		return nil, ErrUnauthorized
	}

	today := s.Today()
	if date.Before(today) {
		return nil, ErrPastDate
	}

	patient, err := s.repo.GetPatientByID(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !patient.Active {
		return nil, ErrPatientInactive
	}
	if _, err := s.repo.GetDoctorByID(ctx, req.DoctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var created *Appointment

	err = s.locker.WithDayLock(ctx, req.DoctorID, date, func(lockCtx context.Context) error {
		// Inside the critical section re-read the window and the day's bookings
		window, err := s.repo.GetWindow(lockCtx, req.DoctorID, date)
		if err != nil && !errors.Is(err, ErrWindowNotFound) {
			return fmt.Errorf("load availability: %w", err)
		}
		// GetDoctorByID may be served from a cache; the active flag is not.
		active, err := s.repo.DoctorActive(lockCtx, req.DoctorID)
		if err != nil {
			return fmt.Errorf("load doctor status: %w", err)
		}
		if !active {
			window = nil
		}

		existing, err := s.repo.ListDoctorAppointmentsOn(lockCtx, req.DoctorID, date)
		if err != nil {
			return fmt.Errorf("load appointments: %w", err)
		}

		proposal := Proposal{DoctorID: req.DoctorID, Date: date, Time: at}
		if err := CheckBooking(proposal, today, window, existing); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			PatientID: req.PatientID,
			DoctorID:  req.DoctorID,
			Date:      date,
			Time:      at,
			Status:    StatusBooked,
			Reason:    strings.TrimSpace(req.Reason),
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"patient_id": req.PatientID.String(),
			"doctor_id":  req.DoctorID.String(),
			"date":       FormatDate(date),
			"time":       at.String(),
			"actor_role": string(actor.Role),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: slot is currently being booked, please retry", ErrStorageConflict)
		}
		return nil, err
	}

	return created, nil
}

// Cancel moves a Booked appointment to Cancelled. The booking's patient, the
// appointment's doctor and admins may cancel.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !canAccess(actor, appt) {
		return nil, ErrUnauthorized
	}

	if !appt.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusBooked, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// status changed between the read and the conditional update
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"actor_id":   actor.ID.String(),
		"actor_role": string(actor.Role),
	})

	return updated, nil
}

type CompleteRequest struct {
	Diagnosis    string
	Prescription string
	Notes        string
	FollowUpDate string
}

// Complete records the treatment and moves the appointment to Completed.
// Only the appointment's doctor may complete it.
func (s *Service) Complete(ctx context.Context, actor Actor, id uuid.UUID, req CompleteRequest) (*Appointment, *Treatment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load appointment: %w", err)
	}

	if actor.Role != RoleDoctor || actor.ID != appt.DoctorID {
		return nil, nil, ErrUnauthorized
	}

	if !appt.Status.CanTransitionTo(StatusCompleted) {
		return nil, nil, ErrInvalidTransition
	}

	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return nil, nil, ErrDiagnosisRequired
	}

	followUp, err := parseOptionalDate(req.FollowUpDate)
	if err != nil {
		return nil, nil, err
	}

	updated, treatment, err := s.repo.CompleteAppointment(ctx, appt.ID, Treatment{
		AppointmentID: appt.ID,
		Diagnosis:     diagnosis,
		Prescription:  strings.TrimSpace(req.Prescription),
		Notes:         strings.TrimSpace(req.Notes),
		FollowUpDate:  followUp,
	})
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, nil, ErrInvalidTransition
		}
		return nil, nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{
		"treatment_id": treatment.ID.String(),
	})

	return updated, treatment, nil
}

// SetFollowUp changes the follow-up date of a completed appointment's
// treatment. An empty date clears it.
func (s *Service) SetFollowUp(ctx context.Context, actor Actor, id uuid.UUID, followUpDate string) (*Treatment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if actor.Role != RoleDoctor || actor.ID != appt.DoctorID {
		return nil, ErrUnauthorized
	}

	if appt.Status != StatusCompleted {
		return nil, ErrInvalidTransition
	}

	followUp, err := parseOptionalDate(followUpDate)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.SetFollowUp(ctx, appt.ID, followUp)
	if err != nil {
		return nil, fmt.Errorf("set follow up: %w", err)
	}

	payload := map[string]any{"follow_up_date": nil}
	if followUp != nil {
		payload["follow_up_date"] = FormatDate(*followUp)
	}
	s.logEvent(ctx, appt.ID, EventFollowUpChanged, payload)

	return t, nil
}

// GetAppointment returns a hydrated appointment visible to the actor.
func (s *Service) GetAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if !canAccess(actor, &detail.Appointment) {
		return nil, ErrUnauthorized
	}
	return detail, nil
}

// ListAppointments returns the appointments visible to the actor, newest first.
// Admins see everything, doctors and patients only their own.
func (s *Service) ListAppointments(ctx context.Context, actor Actor, status, date string) ([]AppointmentDetail, error) {
	var f AppointmentFilter

	switch actor.Role {
	case RoleAdmin:
	case RoleDoctor:
		f.DoctorID = &actor.ID
	case RolePatient:
		f.PatientID = &actor.ID
	default:
		return nil, ErrUnauthorized
	}

	if status = strings.TrimSpace(status); status != "" {
		st := AppointmentStatus(status)
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		f.Status = &st
	}

	if strings.TrimSpace(date) != "" {
		d, err := ParseDate(date)
		if err != nil {
			return nil, err
		}
		f.Date = &d
	}

	list, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return list, nil
}

// MedicalHistory returns a patient's completed appointments with treatments.
func (s *Service) MedicalHistory(ctx context.Context, actor Actor, patientID uuid.UUID) ([]AppointmentDetail, error) {
	if actor.Role == RolePatient && actor.ID != patientID {
		return nil, ErrUnauthorized
	}
	if !actor.Role.IsValid() {
		return nil, ErrUnauthorized
	}

	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	completed := StatusCompleted
	list, err := s.repo.ListAppointments(ctx, AppointmentFilter{PatientID: &patientID, Status: &completed})
	if err != nil {
		return nil, fmt.Errorf("list medical history: %w", err)
	}
	return list, nil
}

func canAccess(actor Actor, appt *Appointment) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleDoctor:
		return actor.ID == appt.DoctorID
	case RolePatient:
		return actor.ID == appt.PatientID
	}
	return false
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	logger := zerolog.Ctx(ctx)

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		logger.Warn().Err(err).
			Str("event_type", eventType).
			Stringer("appointment_id", appointmentID).
			Msg("failed to insert event log")
	}
}
