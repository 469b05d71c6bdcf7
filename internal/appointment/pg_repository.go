package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

// classify maps driver errors onto the package's storage errors.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrStorageConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func pgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) TimeOfDay {
	return TimeOfDayFromMicroseconds(t.Microseconds)
}

func asDate(t time.Time) time.Time {
	return DateOf(t)
}

const patientColumns = `id, full_name, phone, email, date_of_birth, gender, blood_group,
	address, emergency_contact, active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob *time.Time

	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.Phone,
		&p.Email,
		&dob,
		&p.Gender,
		&p.BloodGroup,
		&p.Address,
		&p.EmergencyContact,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, classify(err)
	}

	if dob != nil {
		d := asDate(*dob)
		p.DateOfBirth = &d
	}
	return &p, nil
}

const doctorColumns = `d.id, d.full_name, d.specialization, d.department_id, dep.name, d.phone,
	d.qualification, d.experience_years, d.consultation_fee::float8, d.active, d.created_at, d.updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.FullName,
		&d.Specialization,
		&d.DepartmentID,
		&d.DepartmentName,
		&d.Phone,
		&d.Qualification,
		&d.ExperienceYears,
		&d.ConsultationFee,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, classify(err)
	}
	return &d, nil
}

const windowColumns = `id, doctor_id, date, start_time, end_time, is_available`

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	var start, end pgtype.Time

	err := row.Scan(&w.ID, &w.DoctorID, &w.Date, &start, &end, &w.IsAvailable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, classify(err)
	}

	w.Date = asDate(w.Date)
	w.StartTime = fromPgTime(start)
	w.EndTime = fromPgTime(end)
	return &w, nil
}

const appointmentColumns = `a.id, a.patient_id, a.doctor_id, a.appointment_date, a.appointment_time,
	a.status, a.reason, a.created_at, a.updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var at pgtype.Time

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&at,
		&a.Status,
		&a.Reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, classify(err)
	}

	a.Date = asDate(a.Date)
	a.Time = fromPgTime(at)
	return &a, nil
}

const treatmentColumns = `id, appointment_id, diagnosis, prescription, notes, follow_up_date, created_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	var followUp *time.Time

	err := row.Scan(&t.ID, &t.AppointmentID, &t.Diagnosis, &t.Prescription, &t.Notes, &followUp, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTreatmentNotFound
		}
		return nil, classify(err)
	}

	if followUp != nil {
		d := asDate(*followUp)
		t.FollowUpDate = &d
	}
	return &t, nil
}

const detailQuery = `
	SELECT ` + appointmentColumns + `,
	       p.full_name, p.phone, d.full_name, d.specialization,
	       t.id, t.diagnosis, t.prescription, t.notes, t.follow_up_date, t.created_at
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
	LEFT JOIN treatments t ON t.appointment_id = a.id`

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var at pgtype.Time
	var (
		tID           *uuid.UUID
		tDiagnosis    *string
		tPrescription *string
		tNotes        *string
		tFollowUp     *time.Time
		tCreatedAt    *time.Time
	)

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorID,
		&d.Date,
		&at,
		&d.Status,
		&d.Reason,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.PatientName,
		&d.PatientPhone,
		&d.DoctorName,
		&d.DoctorSpecialization,
		&tID,
		&tDiagnosis,
		&tPrescription,
		&tNotes,
		&tFollowUp,
		&tCreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, classify(err)
	}

	d.Date = asDate(d.Date)
	d.Time = fromPgTime(at)

	if tID != nil {
		t := &Treatment{ID: *tID, AppointmentID: d.ID}
		if tDiagnosis != nil {
			t.Diagnosis = *tDiagnosis
		}
		if tPrescription != nil {
			t.Prescription = *tPrescription
		}
		if tNotes != nil {
			t.Notes = *tNotes
		}
		if tFollowUp != nil {
			f := asDate(*tFollowUp)
			t.FollowUpDate = &f
		}
		if tCreatedAt != nil {
			t.CreatedAt = *tCreatedAt
		}
		d.Treatment = t
	}
	return &d, nil
}

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// Directory

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context, search string) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE active
		  AND ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')
		ORDER BY full_name
	`, search)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanPatient)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		JOIN departments dep ON dep.id = d.department_id
		WHERE d.id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context, f DoctorFilter) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors d
		JOIN departments dep ON dep.id = d.department_id
		WHERE d.active
		  AND ($1 = '' OR d.full_name ILIKE '%' || $1 || '%' OR d.specialization ILIKE '%' || $1 || '%')
		  AND ($2::uuid IS NULL OR d.department_id = $2)
		ORDER BY d.full_name
	`, f.Search, f.DepartmentID)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanDoctor)
}

func (r *PgRepository) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) (*Doctor, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET active = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return nil, classify(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrDoctorNotFound
	}
	return r.GetDoctorByID(ctx, id)
}

func (r *PgRepository) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT dep.id, dep.name, dep.description, count(d.id), dep.created_at
		FROM departments dep
		LEFT JOIN doctors d ON d.department_id = dep.id
		GROUP BY dep.id
		ORDER BY dep.name
	`)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, func(row pgx.Row) (*Department, error) {
		var d Department
		if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.DoctorCount, &d.CreatedAt); err != nil {
			return nil, classify(err)
		}
		return &d, nil
	})
}

func (r *PgRepository) GetDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	var d Department
	err := r.pool.QueryRow(ctx, `
		SELECT dep.id, dep.name, dep.description, count(d.id), dep.created_at
		FROM departments dep
		LEFT JOIN doctors d ON d.department_id = dep.id
		WHERE dep.id = $1
		GROUP BY dep.id
	`, id).Scan(&d.ID, &d.Name, &d.Description, &d.DoctorCount, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, classify(err)
	}
	return &d, nil
}

func (r *PgRepository) DoctorActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `SELECT active FROM doctors WHERE id = $1`, id).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrDoctorNotFound
		}
		return false, classify(err)
	}
	return active, nil
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET full_name = $2,
		    specialization = $3,
		    department_id = $4,
		    phone = $5,
		    qualification = $6,
		    experience_years = $7,
		    consultation_fee = $8,
		    updated_at = now()
		WHERE id = $1
	`, d.ID, d.FullName, d.Specialization, d.DepartmentID, d.Phone, d.Qualification,
		d.ExperienceYears, d.ConsultationFee)
	if err != nil {
		return nil, classify(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrDoctorNotFound
	}
	return r.GetDoctorByID(ctx, d.ID)
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET full_name = $2,
		    phone = $3,
		    email = $4,
		    date_of_birth = $5,
		    gender = $6,
		    blood_group = $7,
		    address = $8,
		    emergency_contact = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns,
		p.ID, p.FullName, p.Phone, p.Email, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.Address, p.EmergencyContact)
	return scanPatient(row)
}

func (r *PgRepository) SetPatientActive(ctx context.Context, id uuid.UUID, active bool) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET active = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns, id, active)
	return scanPatient(row)
}

func (r *PgRepository) ListDoctorPatients(ctx context.Context, doctorID uuid.UUID) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id IN (SELECT patient_id FROM appointments WHERE doctor_id = $1)
		ORDER BY full_name
	`, doctorID)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanPatient)
}

func (r *PgRepository) DashboardCounts(ctx context.Context, today time.Time) (*DashboardCounts, error) {
	var c DashboardCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM doctors WHERE active),
			(SELECT count(*) FROM patients WHERE active),
			(SELECT count(*) FROM appointments),
			(SELECT count(*) FROM appointments WHERE appointment_date = $1),
			(SELECT count(*) FROM appointments WHERE appointment_date >= $1 AND status = 'Booked')
	`, asDate(today)).Scan(&c.ActiveDoctors, &c.ActivePatients, &c.TotalAppointments, &c.TodayAppointments, &c.UpcomingBooked)
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

// Seeding and registration

func (r *PgRepository) EnsureDepartment(ctx context.Context, d Department) (*Department, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO departments (id, name, description, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, description, 0, created_at
	`, d.ID, d.Name, d.Description)

	var out Department
	if err := row.Scan(&out.ID, &out.Name, &out.Description, &out.DoctorCount, &out.CreatedAt); err != nil {
		return nil, classify(err)
	}
	return &out, nil
}

func (r *PgRepository) CountDoctors(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM doctors`).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, full_name, specialization, department_id, phone, qualification,
		                     experience_years, consultation_fee, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`, d.ID, d.FullName, d.Specialization, d.DepartmentID, d.Phone, d.Qualification,
		d.ExperienceYears, d.ConsultationFee, d.Active)
	if err != nil {
		return nil, classify(err)
	}
	return r.GetDoctorByID(ctx, d.ID)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, full_name, phone, email, date_of_birth, gender, blood_group,
		                      address, emergency_contact, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+patientColumns,
		p.ID, p.FullName, p.Phone, p.Email, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.Address, p.EmergencyContact, p.Active)
	return scanPatient(row)
}

// Availability

func (r *PgRepository) GetWindow(ctx context.Context, doctorID uuid.UUID, date time.Time) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+windowColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1 AND date = $2
	`, doctorID, date)
	return scanWindow(row)
}

func (r *PgRepository) UpsertWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_availability (id, doctor_id, date, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (doctor_id, date) DO UPDATE
		SET start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    is_available = EXCLUDED.is_available
		RETURNING `+windowColumns,
		uuid.New(), w.DoctorID, w.Date, pgTime(w.StartTime), pgTime(w.EndTime), w.IsAvailable)
	return scanWindow(row)
}

func (r *PgRepository) ReplaceWindows(ctx context.Context, doctorID uuid.UUID, from, to time.Time, ws []AvailabilityWindow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
		DELETE FROM doctor_availability
		WHERE doctor_id = $1 AND date BETWEEN $2 AND $3
	`, doctorID, from, to); err != nil {
		return classify(err)
	}

	batch := &pgx.Batch{}
	for _, w := range ws {
		batch.Queue(`
			INSERT INTO doctor_availability (id, doctor_id, date, start_time, end_time, is_available)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New(), w.DoctorID, w.Date, pgTime(w.StartTime), pgTime(w.EndTime), w.IsAvailable)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return classify(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (r *PgRepository) ListWindows(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, doctorID, from, to)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanWindow)
}

// Appointments

func (r *PgRepository) ListDoctorAppointmentsOn(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.doctor_id = $1 AND a.appointment_date = $2
		ORDER BY a.appointment_time
	`, doctorID, date)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanAppointment)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailQuery+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f AppointmentFilter) ([]AppointmentDetail, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.PatientID != nil {
		add("a.patient_id = $%d", *f.PatientID)
	}
	if f.DoctorID != nil {
		add("a.doctor_id = $%d", *f.DoctorID)
	}
	if f.Status != nil {
		add("a.status = $%d", string(*f.Status))
	}
	if f.Date != nil {
		add("a.appointment_date = $%d", *f.Date)
	}

	query := detailQuery
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.appointment_date DESC, a.appointment_time DESC, a.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return collect(rows, scanDetail)
}

// CreateAppointment relies on the partial unique index over Booked slots; a
// lost race surfaces as ErrStorageConflict.
func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments AS a (id, patient_id, doctor_id, appointment_date, appointment_time,
		                               status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns,
		uuid.New(), a.PatientID, a.DoctorID, a.Date, pgTime(a.Time), string(a.Status), a.Reason)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments AS a
		SET status = $2,
		    updated_at = now()
		WHERE a.id = $1
		  AND a.status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from))

	return scanAppointment(row)
}

func (r *PgRepository) CompleteAppointment(ctx context.Context, id uuid.UUID, t Treatment) (*Appointment, *Treatment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, classify(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments AS a
		SET status = $2,
		    updated_at = now()
		WHERE a.id = $1
		  AND a.status = $3
		RETURNING `+appointmentColumns,
		id, string(StatusCompleted), string(StatusBooked)))
	if err != nil {
		return nil, nil, err
	}

	treatment, err := scanTreatment(tx.QueryRow(ctx, `
		INSERT INTO treatments (id, appointment_id, diagnosis, prescription, notes, follow_up_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING `+treatmentColumns,
		uuid.New(), id, t.Diagnosis, t.Prescription, t.Notes, t.FollowUpDate))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, classify(err)
	}
	return appt, treatment, nil
}

func (r *PgRepository) SetFollowUp(ctx context.Context, appointmentID uuid.UUID, followUp *time.Time) (*Treatment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE treatments
		SET follow_up_date = $2
		WHERE appointment_id = $1
		RETURNING `+treatmentColumns,
		appointmentID, followUp)
	return scanTreatment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", classify(err))
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
