package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/config"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
)

type countingRepo struct {
	appointment.Repository
	doctorReads atomic.Int32
}

func (r *countingRepo) GetDoctorByID(ctx context.Context, id uuid.UUID) (*appointment.Doctor, error) {
	r.doctorReads.Add(1)
	return r.Repository.GetDoctorByID(ctx, id)
}

func seedDoctor(t *testing.T, mem *appointment.MemRepository) *appointment.Doctor {
	t.Helper()
	ctx := context.Background()
	dep, err := mem.EnsureDepartment(ctx, appointment.Department{Name: "Cardiology"})
	require.NoError(t, err)
	d, err := mem.CreateDoctor(ctx, appointment.Doctor{
		FullName:       "Dr. Rajesh Kumar",
		Specialization: "Cardiologist",
		DepartmentID:   dep.ID,
		Active:         true,
	})
	require.NoError(t, err)
	return d
}

func TestDoctorCacheServesRepeatReads(t *testing.T) {
	mem := appointment.NewMemRepository()
	doc := seedDoctor(t, mem)
	repo := &countingRepo{Repository: mem}
	c := NewDoctorCache(repo, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := c.GetDoctorByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dr. Rajesh Kumar", d.FullName)
		assert.Equal(t, "Cardiology", d.DepartmentName)
	}
	assert.Equal(t, int32(1), repo.doctorReads.Load())
}

func TestDoctorCacheRefreshesOnActiveChange(t *testing.T) {
	mem := appointment.NewMemRepository()
	doc := seedDoctor(t, mem)
	c := NewDoctorCache(mem, time.Minute)
	ctx := context.Background()

	_, err := c.GetDoctorByID(ctx, doc.ID)
	require.NoError(t, err)

	_, err = c.SetDoctorActive(ctx, doc.ID, false)
	require.NoError(t, err)

	d, err := c.GetDoctorByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, d.Active)
}

func TestDoctorCacheDoesNotCacheMisses(t *testing.T) {
	mem := appointment.NewMemRepository()
	repo := &countingRepo{Repository: mem}
	c := NewDoctorCache(repo, time.Minute)

	id := uuid.New()
	for i := 0; i < 2; i++ {
		_, err := c.GetDoctorByID(context.Background(), id)
		assert.ErrorIs(t, err, appointment.ErrDoctorNotFound)
	}
	assert.Equal(t, int32(2), repo.doctorReads.Load())
}

func TestDoctorCacheCopiesAreIndependent(t *testing.T) {
	mem := appointment.NewMemRepository()
	doc := seedDoctor(t, mem)
	c := NewDoctorCache(mem, time.Minute)
	ctx := context.Background()

	first, err := c.GetDoctorByID(ctx, doc.ID)
	require.NoError(t, err)
	first.FullName = "mutated"

	second, err := c.GetDoctorByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rajesh Kumar", second.FullName)
}

func TestDoctorCacheRefreshesOnUpdate(t *testing.T) {
	mem := appointment.NewMemRepository()
	doc := seedDoctor(t, mem)
	c := NewDoctorCache(mem, time.Minute)
	ctx := context.Background()

	_, err := c.GetDoctorByID(ctx, doc.ID)
	require.NoError(t, err)

	changed := *doc
	changed.Qualification = "MD, DM Cardiology"
	_, err = c.UpdateDoctor(ctx, changed)
	require.NoError(t, err)

	d, err := c.GetDoctorByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "MD, DM Cardiology", d.Qualification)
}

// Two API instances share one store but each has its own cache. A doctor
// deactivated through one instance must stop taking bookings on the other
// even while its cached profile still says active.
func TestDeactivationVisibleAcrossInstances(t *testing.T) {
	mem := appointment.NewMemRepository()
	doc := seedDoctor(t, mem)
	ctx := context.Background()

	patient, err := mem.CreatePatient(ctx, appointment.Patient{FullName: "Ravi Verma", Active: true})
	require.NoError(t, err)
	_, err = mem.UpsertWindow(ctx, appointment.AvailabilityWindow{
		DoctorID:    doc.ID,
		Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   appointment.NewTimeOfDay(9, 0),
		EndTime:     appointment.NewTimeOfDay(17, 0),
		IsAvailable: true,
	})
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC) }
	cfg := config.Config{HorizonDays: 7}

	cacheA := NewDoctorCache(mem, 30*time.Second)
	cacheB := NewDoctorCache(mem, 30*time.Second)
	svcA := appointment.NewService(cacheA, redisclient.NewLocalDayLocker(), cfg)
	svcB := appointment.NewService(cacheB, redisclient.NewLocalDayLocker(), cfg)
	svcA.SetClock(now)
	svcB.SetClock(now)

	warm, err := svcB.GetDoctor(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, warm.Active)

	admin := appointment.Actor{ID: uuid.New(), Role: appointment.RoleAdmin}
	_, err = svcA.SetDoctorActive(ctx, admin, doc.ID, false)
	require.NoError(t, err)

	stale, err := svcB.GetDoctor(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stale.Active, "instance B still serves its cached profile")

	appt, err := svcB.Book(ctx, admin, appointment.BookRequest{
		PatientID: patient.ID,
		DoctorID:  doc.ID,
		Date:      "2024-01-10",
		Time:      "10:00",
	})
	assert.Nil(t, appt)
	assert.ErrorIs(t, err, appointment.ErrDoctorUnavailable)
}
