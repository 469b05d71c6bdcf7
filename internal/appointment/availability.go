package appointment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	DefaultStartTime = NewTimeOfDay(9, 0)
	DefaultEndTime   = NewTimeOfDay(17, 0)

	ErrInvalidWindow  = fmt.Errorf("%w: start time must not be after end time", ErrValidation)
	ErrOutsideHorizon = fmt.Errorf("%w: date is outside the availability horizon", ErrValidation)
)

const defaultHorizonDays = 7

func (s *Service) horizonDays() int {
	if s.cfg.HorizonDays > 0 {
		return s.cfg.HorizonDays
	}
	return defaultHorizonDays
}

type WindowRequest struct {
	Date        string
	StartTime   string
	EndTime     string
	IsAvailable bool
}

// SetWindow replaces the doctor's window for one date. Last write wins.
func (s *Service) SetWindow(ctx context.Context, actor Actor, doctorID uuid.UUID, req WindowRequest) (*AvailabilityWindow, error) {
	if actor.Role != RoleDoctor || actor.ID != doctorID {
		return nil, ErrUnauthorized
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, end, err := parseWindowTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	w, err := s.repo.UpsertWindow(ctx, AvailabilityWindow{
		DoctorID:    doctorID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return nil, fmt.Errorf("set availability window: %w", err)
	}
	return w, nil
}

// GetWindow returns the doctor's window for a date or ErrWindowNotFound.
// A missing window means the doctor is not taking bookings that day.
func (s *Service) GetWindow(ctx context.Context, doctorID uuid.UUID, date string) (*AvailabilityWindow, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	w, err := s.repo.GetWindow(ctx, doctorID, d)
	if err != nil {
		return nil, fmt.Errorf("get availability window: %w", err)
	}
	return w, nil
}

type DayRequest struct {
	Date      string
	Available bool
	StartTime string
	EndTime   string
}

// SetWeeklyAvailability rewrites the doctor's windows for the horizon that
// starts today. Existing windows in the horizon are removed, an open window is
// written for each available day, and days not marked available are left
// without a window. Windows outside the horizon are not touched.
func (s *Service) SetWeeklyAvailability(ctx context.Context, actor Actor, doctorID uuid.UUID, days []DayRequest) ([]DayAvailability, error) {
	if actor.Role != RoleDoctor || actor.ID != doctorID {
		return nil, ErrUnauthorized
	}

	from := s.Today()
	to := from.AddDate(0, 0, s.horizonDays()-1)

	byDate := make(map[string]AvailabilityWindow, len(days))
	for _, day := range days {
		date, err := ParseDate(day.Date)
		if err != nil {
			return nil, err
		}
		if date.Before(from) || date.After(to) {
			return nil, fmt.Errorf("%w: %s", ErrOutsideHorizon, FormatDate(date))
		}
		if !day.Available {
			delete(byDate, FormatDate(date))
			continue
		}
		start, end, err := parseWindowTimes(day.StartTime, day.EndTime)
		if err != nil {
			return nil, err
		}
		byDate[FormatDate(date)] = AvailabilityWindow{
			DoctorID:    doctorID,
			Date:        date,
			StartTime:   start,
			EndTime:     end,
			IsAvailable: true,
		}
	}

	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	windows := make([]AvailabilityWindow, 0, len(byDate))
	for _, w := range byDate {
		windows = append(windows, w)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Date.Before(windows[j].Date) })

	if err := s.repo.ReplaceWindows(ctx, doctorID, from, to, windows); err != nil {
		return nil, fmt.Errorf("replace availability: %w", err)
	}

	return s.WeeklyAvailability(ctx, doctorID)
}

// WeeklyAvailability lists each day of the horizon starting today with the
// doctor's window, or the default hours when there is none.
func (s *Service) WeeklyAvailability(ctx context.Context, doctorID uuid.UUID) ([]DayAvailability, error) {
	from := s.Today()
	to := from.AddDate(0, 0, s.horizonDays()-1)

	windows, err := s.repo.ListWindows(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	byDate := make(map[string]AvailabilityWindow, len(windows))
	for _, w := range windows {
		byDate[FormatDate(w.Date)] = w
	}

	days := make([]DayAvailability, 0, s.horizonDays())
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := DayAvailability{Date: d, StartTime: DefaultStartTime, EndTime: DefaultEndTime}
		if w, ok := byDate[FormatDate(d)]; ok {
			day.Available = w.IsAvailable
			day.StartTime = w.StartTime
			day.EndTime = w.EndTime
		}
		days = append(days, day)
	}
	return days, nil
}

// OpenWindows returns the doctor's open windows from today through
// today+horizon, the range offered to patients when booking.
func (s *Service) OpenWindows(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityWindow, error) {
	from := s.Today()
	to := from.AddDate(0, 0, s.horizonDays())

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !doctor.Active {
		return []AvailabilityWindow{}, nil
	}

	windows, err := s.repo.ListWindows(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	open := make([]AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		if w.IsAvailable {
			open = append(open, w)
		}
	}
	return open, nil
}

func parseWindowTimes(start, end string) (TimeOfDay, TimeOfDay, error) {
	s, e := DefaultStartTime, DefaultEndTime
	var err error
	if strings.TrimSpace(start) != "" {
		if s, err = ParseTimeOfDay(start); err != nil {
			return 0, 0, err
		}
	}
	if strings.TrimSpace(end) != "" {
		if e, err = ParseTimeOfDay(end); err != nil {
			return 0, 0, err
		}
	}
	if s > e {
		return 0, 0, ErrInvalidWindow
	}
	return s, e, nil
}
