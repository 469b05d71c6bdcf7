package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
)

func TestCreateAndUpdateDoctor(t *testing.T) {
	f := newFixture(t, redisclient.NewLocalDayLocker())
	ctx := context.Background()

	cardio, err := f.repo.EnsureDepartment(ctx, Department{Name: "Cardiology"})
	require.NoError(t, err)

	in := NewDoctor{
		FullName:        "  Dr. Rajesh Kumar ",
		Specialization:  "Cardiologist",
		DepartmentID:    cardio.ID,
		Qualification:   "MBBS, MD",
		ExperienceYears: 12,
		ConsultationFee: 800,
	}

	_, err = f.svc.CreateDoctor(ctx, f.asDoctor(f.doctor), in)
	assert.ErrorIs(t, err, ErrUnauthorized)

	created, err := f.svc.CreateDoctor(ctx, f.admin(), in)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rajesh Kumar", created.FullName)
	assert.Equal(t, "Cardiology", created.DepartmentName)
	assert.True(t, created.Active)

	bad := in
	bad.DepartmentID = uuid.New()
	_, err = f.svc.CreateDoctor(ctx, f.admin(), bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = in
	bad.Specialization = " "
	_, err = f.svc.CreateDoctor(ctx, f.admin(), bad)
	assert.ErrorIs(t, err, ErrValidation)

	fee := 950.0
	general := f.doctor.DepartmentID
	updated, err := f.svc.UpdateDoctor(ctx, f.admin(), created.ID, DoctorUpdate{ConsultationFee: &fee, DepartmentID: &general})
	require.NoError(t, err)
	assert.Equal(t, 950.0, updated.ConsultationFee)
	assert.Equal(t, "General Medicine", updated.DepartmentName)
	assert.Equal(t, "Cardiologist", updated.Specialization, "unset fields are kept")
	assert.True(t, updated.Active)

	empty := ""
	_, err = f.svc.UpdateDoctor(ctx, f.admin(), created.ID, DoctorUpdate{FullName: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdateDoctor(ctx, f.admin(), uuid.New(), DoctorUpdate{ConsultationFee: &fee})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestPatientProfileManagement(t *testing.T) {
	f := newFixture(t, redisclient.NewLocalDayLocker())
	ctx := context.Background()

	_, err := f.svc.CreatePatient(ctx, f.asPatient(f.patient), PatientProfile{FullName: "Meena Iyer"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	created, err := f.svc.CreatePatient(ctx, f.admin(), PatientProfile{
		FullName:    "Meena Iyer",
		Phone:       "9123456780",
		Email:       "meena@example.com",
		DateOfBirth: "1990-04-12",
		BloodGroup:  "B+",
	})
	require.NoError(t, err)
	assert.True(t, created.Active)
	require.NotNil(t, created.Email)
	assert.Equal(t, "meena@example.com", *created.Email)
	require.NotNil(t, created.DateOfBirth)
	assert.Equal(t, time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC), *created.DateOfBirth)

	_, err = f.svc.CreatePatient(ctx, f.admin(), PatientProfile{FullName: "X", DateOfBirth: "12/04/1990"})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	updated, err := f.svc.UpdatePatient(ctx, f.asPatient(created), created.ID, PatientProfile{FullName: "Meena R. Iyer", Phone: "9123456780"})
	require.NoError(t, err)
	assert.Equal(t, "Meena R. Iyer", updated.FullName)
	assert.Nil(t, updated.Email)
	assert.True(t, updated.Active)

	_, err = f.svc.UpdatePatient(ctx, f.asPatient(f.patient), created.ID, PatientProfile{FullName: "Hijack"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.UpdatePatient(ctx, f.asDoctor(f.doctor), created.ID, PatientProfile{FullName: "Hijack"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.UpdatePatient(ctx, f.admin(), uuid.New(), PatientProfile{FullName: "Nobody"})
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = f.svc.SetPatientActive(ctx, f.asDoctor(f.doctor), created.ID, false)
	assert.ErrorIs(t, err, ErrUnauthorized)
	off, err := f.svc.SetPatientActive(ctx, f.admin(), created.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Active)

	listed, err := f.svc.ListPatients(ctx, f.admin(), "meena")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestGetDepartmentListsActiveDoctors(t *testing.T) {
	f := newFixture(t, redisclient.NewLocalDayLocker())
	ctx := context.Background()

	_, err := f.svc.SetDoctorActive(ctx, f.admin(), f.other.ID, false)
	require.NoError(t, err)

	dep, doctors, err := f.svc.GetDepartment(ctx, f.doctor.DepartmentID)
	require.NoError(t, err)
	assert.Equal(t, "General Medicine", dep.Name)
	assert.Equal(t, 2, dep.DoctorCount)
	require.Len(t, doctors, 1)
	assert.Equal(t, f.doctor.ID, doctors[0].ID)

	_, _, err = f.svc.GetDepartment(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDoctorPatients(t *testing.T) {
	f := newFixture(t, redisclient.NewLocalDayLocker())
	ctx := context.Background()

	_, err := f.book(f.patient, "2024-01-10", "10:00")
	require.NoError(t, err)
	appt, err := f.book(f.patient, "2024-01-10", "11:00")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.asPatient(f.patient), appt.ID)
	require.NoError(t, err)

	patients, err := f.svc.ListDoctorPatients(ctx, f.asDoctor(f.doctor), f.doctor.ID)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, f.patient.ID, patients[0].ID)

	none, err := f.svc.ListDoctorPatients(ctx, f.admin(), f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ListDoctorPatients(ctx, f.asDoctor(f.other), f.doctor.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.ListDoctorPatients(ctx, f.asPatient(f.patient), f.doctor.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, redisclient.NewLocalDayLocker())
	ctx := context.Background()

	_, err := f.book(f.patient, "2024-01-10", "10:00")
	require.NoError(t, err)
	_, err = f.svc.SetDoctorActive(ctx, f.admin(), f.other.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Dashboard(ctx, f.asDoctor(f.doctor))
	assert.ErrorIs(t, err, ErrUnauthorized)

	d, err := f.svc.Dashboard(ctx, f.admin())
	require.NoError(t, err)
	assert.Equal(t, 1, d.ActiveDoctors)
	assert.Equal(t, 2, d.ActivePatients)
	assert.Equal(t, 1, d.TotalAppointments)
	assert.Equal(t, 0, d.TodayAppointments)
	assert.Equal(t, 1, d.UpcomingBooked)
	require.Len(t, d.Departments, 1)
}
