package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidFormat     = errors.New("invalid date or time format")
	ErrPastDate          = errors.New("cannot book appointment for past dates")
	ErrDoctorUnavailable = errors.New("doctor is not available on the selected date")
	ErrOutOfWindow       = errors.New("time is outside the doctor's availability window")
	ErrSlotTaken         = errors.New("this time slot is already booked")
)

// Proposal is a booking request for the slot (doctor, date, time).
type Proposal struct {
	DoctorID uuid.UUID
	Date     time.Time
	Time     TimeOfDay
}

// CheckBooking validates p against the doctor's window for the date and the
// doctor's existing appointments on that date. It returns nil when the slot
// can be booked, otherwise the first failing rule's error:
//
//	date before today            -> ErrPastDate
//	no window, or window closed  -> ErrDoctorUnavailable
//	time outside [start, end]    -> ErrOutOfWindow
//	a Booked appointment exists  -> ErrSlotTaken
//
// Both window ends are inclusive, so a booking exactly at closing time is accepted.
func CheckBooking(p Proposal, today time.Time, window *AvailabilityWindow, existing []Appointment) error {
	if p.Date.Before(DateOf(today)) {
		return ErrPastDate
	}

	if window == nil || !window.IsAvailable || window.DoctorID != p.DoctorID || !window.Date.Equal(p.Date) {
		return ErrDoctorUnavailable
	}

	if p.Time < window.StartTime || p.Time > window.EndTime {
		return fmt.Errorf("%w: please select a time between %s and %s", ErrOutOfWindow, window.StartTime, window.EndTime)
	}

	for _, a := range existing {
		if a.Status == StatusBooked && a.DoctorID == p.DoctorID && a.Date.Equal(p.Date) && a.Time == p.Time {
			return ErrSlotTaken
		}
	}

	return nil
}
