package appointment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type slotKey struct {
	doctorID uuid.UUID
	date     string
	time     TimeOfDay
}

type windowKey struct {
	doctorID uuid.UUID
	date     string
}

// MemRepository is an in-process Repository. It enforces the same uniqueness
// rules as the postgres schema: one window per (doctor, date), one Booked
// appointment per slot and one treatment per appointment.
type MemRepository struct {
	mu sync.RWMutex

	departments  map[uuid.UUID]Department
	doctors      map[uuid.UUID]Doctor
	patients     map[uuid.UUID]Patient
	windows      map[windowKey]AvailabilityWindow
	appointments map[uuid.UUID]Appointment
	booked       map[slotKey]uuid.UUID
	treatments   map[uuid.UUID]Treatment
	events       []EventLog
	nextEventID  int64
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		departments:  make(map[uuid.UUID]Department),
		doctors:      make(map[uuid.UUID]Doctor),
		patients:     make(map[uuid.UUID]Patient),
		windows:      make(map[windowKey]AvailabilityWindow),
		appointments: make(map[uuid.UUID]Appointment),
		booked:       make(map[slotKey]uuid.UUID),
		treatments:   make(map[uuid.UUID]Treatment),
	}
}

func slotOf(a Appointment) slotKey {
	return slotKey{doctorID: a.DoctorID, date: FormatDate(a.Date), time: a.Time}
}

// Directory

func (r *MemRepository) EnsureDepartment(_ context.Context, d Department) (*Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.departments {
		if existing.Name == d.Name {
			return &existing, nil
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	r.departments[d.ID] = d
	return &d, nil
}

func (r *MemRepository) CountDoctors(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.doctors), nil
}

func (r *MemRepository) CreateDoctor(_ context.Context, d Doctor) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if _, ok := r.doctors[d.ID]; ok {
		return nil, fmt.Errorf("%w: doctor %s already exists", ErrStorageConflict, d.ID)
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	r.doctors[d.ID] = d
	return r.hydrateDoctor(d), nil
}

func (r *MemRepository) CreatePatient(_ context.Context, p Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := r.patients[p.ID]; ok {
		return nil, fmt.Errorf("%w: patient %s already exists", ErrStorageConflict, p.ID)
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.patients[p.ID] = p
	return &p, nil
}

func (r *MemRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemRepository) ListPatients(_ context.Context, search string) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(search)
	result := []Patient{}
	for _, p := range r.patients {
		if !p.Active {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.FullName), needle) && !strings.Contains(strings.ToLower(p.Phone), needle) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (r *MemRepository) hydrateDoctor(d Doctor) *Doctor {
	if dep, ok := r.departments[d.DepartmentID]; ok {
		d.DepartmentName = dep.Name
	}
	return &d
}

func (r *MemRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return r.hydrateDoctor(d), nil
}

func (r *MemRepository) ListDoctors(_ context.Context, f DoctorFilter) ([]Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(f.Search)
	result := []Doctor{}
	for _, d := range r.doctors {
		if !d.Active {
			continue
		}
		if f.DepartmentID != nil && d.DepartmentID != *f.DepartmentID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(d.FullName), needle) && !strings.Contains(strings.ToLower(d.Specialization), needle) {
			continue
		}
		result = append(result, *r.hydrateDoctor(d))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (r *MemRepository) SetDoctorActive(_ context.Context, id uuid.UUID, active bool) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d.Active = active
	d.UpdatedAt = time.Now()
	r.doctors[id] = d
	return r.hydrateDoctor(d), nil
}

func (r *MemRepository) DoctorActive(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return false, ErrDoctorNotFound
	}
	return d.Active, nil
}

func (r *MemRepository) UpdateDoctor(_ context.Context, d Doctor) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.doctors[d.ID]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d.Active = existing.Active
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = time.Now()
	r.doctors[d.ID] = d
	return r.hydrateDoctor(d), nil
}

func (r *MemRepository) UpdatePatient(_ context.Context, p Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.patients[p.ID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p.Active = existing.Active
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	r.patients[p.ID] = p
	return &p, nil
}

func (r *MemRepository) SetPatientActive(_ context.Context, id uuid.UUID, active bool) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p.Active = active
	p.UpdatedAt = time.Now()
	r.patients[id] = p
	return &p, nil
}

func (r *MemRepository) ListDoctorPatients(_ context.Context, doctorID uuid.UUID) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	result := []Patient{}
	for _, a := range r.appointments {
		if a.DoctorID != doctorID || seen[a.PatientID] {
			continue
		}
		seen[a.PatientID] = true
		if p, ok := r.patients[a.PatientID]; ok {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (r *MemRepository) GetDepartmentByID(_ context.Context, id uuid.UUID) (*Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dep, ok := r.departments[id]
	if !ok {
		return nil, ErrDepartmentNotFound
	}
	dep.DoctorCount = 0
	for _, d := range r.doctors {
		if d.DepartmentID == id {
			dep.DoctorCount++
		}
	}
	return &dep, nil
}

func (r *MemRepository) DashboardCounts(_ context.Context, today time.Time) (*DashboardCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var c DashboardCounts
	for _, d := range r.doctors {
		if d.Active {
			c.ActiveDoctors++
		}
	}
	for _, p := range r.patients {
		if p.Active {
			c.ActivePatients++
		}
	}
	day := DateOf(today)
	for _, a := range r.appointments {
		c.TotalAppointments++
		if a.Date.Equal(day) {
			c.TodayAppointments++
		}
		if a.Status == StatusBooked && !a.Date.Before(day) {
			c.UpcomingBooked++
		}
	}
	return &c, nil
}

func (r *MemRepository) ListDepartments(_ context.Context) ([]Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Department, 0, len(r.departments))
	for _, dep := range r.departments {
		dep.DoctorCount = 0
		for _, d := range r.doctors {
			if d.DepartmentID == dep.ID {
				dep.DoctorCount++
			}
		}
		result = append(result, dep)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Availability

func (r *MemRepository) GetWindow(_ context.Context, doctorID uuid.UUID, date time.Time) (*AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.windows[windowKey{doctorID: doctorID, date: FormatDate(date)}]
	if !ok {
		return nil, ErrWindowNotFound
	}
	return &w, nil
}

func (r *MemRepository) UpsertWindow(_ context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := windowKey{doctorID: w.DoctorID, date: FormatDate(w.Date)}
	if existing, ok := r.windows[key]; ok {
		w.ID = existing.ID
	} else {
		w.ID = uuid.New()
	}
	r.windows[key] = w
	return &w, nil
}

func (r *MemRepository) ReplaceWindows(_ context.Context, doctorID uuid.UUID, from, to time.Time, ws []AvailabilityWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := func(key windowKey, w AvailabilityWindow) bool {
		return key.doctorID == doctorID && !w.Date.Before(from) && !w.Date.After(to)
	}

	// Validate everything first so a conflict leaves the store untouched.
	incoming := make(map[windowKey]struct{}, len(ws))
	for _, w := range ws {
		key := windowKey{doctorID: w.DoctorID, date: FormatDate(w.Date)}
		if _, dup := incoming[key]; dup {
			return fmt.Errorf("%w: duplicate window for %s", ErrStorageConflict, key.date)
		}
		if existing, ok := r.windows[key]; ok && !replaced(key, existing) {
			return fmt.Errorf("%w: duplicate window for %s", ErrStorageConflict, key.date)
		}
		incoming[key] = struct{}{}
	}

	for key, w := range r.windows {
		if replaced(key, w) {
			delete(r.windows, key)
		}
	}
	for _, w := range ws {
		w.ID = uuid.New()
		r.windows[windowKey{doctorID: w.DoctorID, date: FormatDate(w.Date)}] = w
	}
	return nil
}

func (r *MemRepository) ListWindows(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []AvailabilityWindow{}
	for key, w := range r.windows {
		if key.doctorID == doctorID && !w.Date.Before(from) && !w.Date.After(to) {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Appointments

func (r *MemRepository) ListDoctorAppointmentsOn(_ context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := FormatDate(date)
	var result []Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && FormatDate(a.Date) == day {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Time < result[j].Time })
	return result, nil
}

func (r *MemRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemRepository) detail(a Appointment) AppointmentDetail {
	d := AppointmentDetail{Appointment: a}
	if p, ok := r.patients[a.PatientID]; ok {
		d.PatientName = p.FullName
		d.PatientPhone = p.Phone
	}
	if doc, ok := r.doctors[a.DoctorID]; ok {
		d.DoctorName = doc.FullName
		d.DoctorSpecialization = doc.Specialization
	}
	if t, ok := r.treatments[a.ID]; ok {
		d.Treatment = &t
	}
	return d
}

func (r *MemRepository) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	d := r.detail(a)
	return &d, nil
}

func (r *MemRepository) ListAppointments(_ context.Context, f AppointmentFilter) ([]AppointmentDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []AppointmentDetail{}
	for _, a := range r.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.Date != nil && FormatDate(a.Date) != FormatDate(*f.Date) {
			continue
		}
		result = append(result, r.detail(a))
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Time != b.Time {
			return a.Time > b.Time
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return result, nil
}

func (r *MemRepository) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Status == StatusBooked {
		if _, taken := r.booked[slotOf(a)]; taken {
			return nil, fmt.Errorf("%w: slot already holds a booked appointment", ErrStorageConflict)
		}
	}

	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.appointments[a.ID] = a
	if a.Status == StatusBooked {
		r.booked[slotOf(a)] = a.ID
	}
	return &a, nil
}

func (r *MemRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	r.setStatus(&a, to)
	return &a, nil
}

func (r *MemRepository) setStatus(a *Appointment, to AppointmentStatus) {
	if a.Status == StatusBooked {
		delete(r.booked, slotOf(*a))
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.appointments[a.ID] = *a
}

func (r *MemRepository) CompleteAppointment(_ context.Context, id uuid.UUID, t Treatment) (*Appointment, *Treatment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != StatusBooked {
		return nil, nil, ErrAppointmentNotFound
	}
	if _, exists := r.treatments[id]; exists {
		return nil, nil, fmt.Errorf("%w: appointment already has a treatment", ErrStorageConflict)
	}

	t.ID = uuid.New()
	t.AppointmentID = id
	t.CreatedAt = time.Now()
	r.treatments[id] = t
	r.setStatus(&a, StatusCompleted)
	return &a, &t, nil
}

func (r *MemRepository) SetFollowUp(_ context.Context, appointmentID uuid.UUID, followUp *time.Time) (*Treatment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.treatments[appointmentID]
	if !ok {
		return nil, ErrTreatmentNotFound
	}
	t.FollowUpDate = followUp
	r.treatments[appointmentID] = t
	return &t, nil
}

func (r *MemRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextEventID++
	ev.ID = r.nextEventID
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the event log.
func (r *MemRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventLog(nil), r.events...)
}

// TreatmentCount is the number of stored treatments.
func (r *MemRepository) TreatmentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.treatments)
}
