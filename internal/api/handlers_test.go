package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/config"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
	redisclient "github.com/hackgods/hospital-scheduling/internal/redis"
)

type testServer struct {
	srv     *httptest.Server
	repo    *appointment.MemRepository
	metrics *metrics.Collector
	doctor  *appointment.Doctor
	patient *appointment.Patient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	repo := appointment.NewMemRepository()

	dep, err := repo.EnsureDepartment(ctx, appointment.Department{Name: "General Medicine", Description: "General health and common diseases"})
	require.NoError(t, err)
	doctor, err := repo.CreateDoctor(ctx, appointment.Doctor{FullName: "Dr. Amit Gupta", Specialization: "General Physician", DepartmentID: dep.ID, Active: true})
	require.NoError(t, err)
	patient, err := repo.CreatePatient(ctx, appointment.Patient{FullName: "Rahul Verma", Phone: "9123456780", Active: true})
	require.NoError(t, err)
	_, err = repo.UpsertWindow(ctx, appointment.AvailabilityWindow{
		DoctorID:    doctor.ID,
		Date:        time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   appointment.NewTimeOfDay(9, 0),
		EndTime:     appointment.NewTimeOfDay(17, 0),
		IsAvailable: true,
	})
	require.NoError(t, err)

	svc := appointment.NewService(repo, redisclient.NewLocalDayLocker(), config.Config{HorizonDays: 7})
	svc.SetClock(func() time.Time { return time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC) })

	m := metrics.NewCollector("hospital")
	router := NewRouter(RouterConfig{
		Service: svc,
		Metrics: m,
		Logger:  zerolog.Nop(),
		Env:     "test",
		Version: "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, repo: repo, metrics: m, doctor: doctor, patient: patient}
}

func (ts *testServer) do(t *testing.T, method, path string, actor *appointment.Actor, body any) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(HeaderUserID, actor.ID.String())
		req.Header.Set(HeaderUserRole, string(actor.Role))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ts *testServer) patientActor() *appointment.Actor {
	return &appointment.Actor{ID: ts.patient.ID, Role: appointment.RolePatient}
}

func (ts *testServer) doctorActor() *appointment.Actor {
	return &appointment.Actor{ID: ts.doctor.ID, Role: appointment.RoleDoctor}
}

func adminActor() *appointment.Actor {
	return &appointment.Actor{ID: uuid.New(), Role: appointment.RoleAdmin}
}

func decodeError(t *testing.T, data []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func (ts *testServer) bookBody(at string) CreateAppointmentRequest {
	return CreateAppointmentRequest{
		DoctorID:        ts.doctor.ID.String(),
		AppointmentDate: "2024-01-10",
		AppointmentTime: at,
		Reason:          "fever",
	}
}

func TestBookAndLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, "/api/appointments", ts.patientActor(), ts.bookBody("10:00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created AppointmentResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "Booked", created.Status)
	assert.Equal(t, "2024-01-10", created.AppointmentDate)
	assert.Equal(t, "10:00", created.AppointmentTime)
	assert.Equal(t, ts.patient.ID, created.PatientID)

	resp, data = ts.do(t, http.MethodPost, "/api/appointments", ts.patientActor(), ts.bookBody("10:00"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "slot_taken", decodeError(t, data).Error)

	path := "/api/appointments/" + created.ID.String()

	resp, data = ts.do(t, http.MethodPost, path+"/complete", ts.doctorActor(), CompleteAppointmentRequest{Diagnosis: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decodeError(t, data).Error)

	resp, data = ts.do(t, http.MethodPost, path+"/complete", ts.doctorActor(), CompleteAppointmentRequest{Diagnosis: "Flu", FollowUpDate: "2024-01-20"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var completed CompleteAppointmentResponse
	require.NoError(t, json.Unmarshal(data, &completed))
	assert.Equal(t, "Completed", completed.Appointment.Status)
	assert.Equal(t, "Flu", completed.Treatment.Diagnosis)
	require.NotNil(t, completed.Treatment.FollowUpDate)
	assert.Equal(t, "2024-01-20", *completed.Treatment.FollowUpDate)

	resp, data = ts.do(t, http.MethodDelete, path, ts.patientActor(), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_status_transition", decodeError(t, data).Error)

	resp, data = ts.do(t, http.MethodPut, path+"/follow-up", ts.doctorActor(), FollowUpRequest{FollowUpDate: ""})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var tr TreatmentResponse
	require.NoError(t, json.Unmarshal(data, &tr))
	assert.Nil(t, tr.FollowUpDate)

	resp, data = ts.do(t, http.MethodGet, path, ts.patientActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail AppointmentResponse
	require.NoError(t, json.Unmarshal(data, &detail))
	require.NotNil(t, detail.Treatment)
	assert.Equal(t, "Dr. Amit Gupta", detail.DoctorName)

	resp, data = ts.do(t, http.MethodGet, "/api/patients/"+ts.patient.ID.String()+"/history", ts.patientActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []AppointmentResponse
	require.NoError(t, json.Unmarshal(data, &history))
	assert.Len(t, history, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.BookingsTotal.WithLabelValues("booked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.BookingsTotal.WithLabelValues("slot_taken")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.TransitionsTotal.WithLabelValues("Completed")))
}

func TestBookErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		actor  *appointment.Actor
		body   any
		status int
		code   string
	}{
		{"past date", ts.patientActor(), CreateAppointmentRequest{DoctorID: ts.doctor.ID.String(), AppointmentDate: "2024-01-08", AppointmentTime: "10:00"}, http.StatusUnprocessableEntity, "past_date"},
		{"out of window", ts.patientActor(), ts.bookBody("18:00"), http.StatusUnprocessableEntity, "out_of_window"},
		{"no window", ts.patientActor(), CreateAppointmentRequest{DoctorID: ts.doctor.ID.String(), AppointmentDate: "2024-01-11", AppointmentTime: "10:00"}, http.StatusConflict, "doctor_unavailable"},
		{"bad date", ts.patientActor(), CreateAppointmentRequest{DoctorID: ts.doctor.ID.String(), AppointmentDate: "10-01-2024", AppointmentTime: "10:00"}, http.StatusBadRequest, "invalid_format"},
		{"missing doctor id", ts.patientActor(), CreateAppointmentRequest{AppointmentDate: "2024-01-10", AppointmentTime: "10:00"}, http.StatusBadRequest, "validation_failed"},
		{"unknown doctor", ts.patientActor(), CreateAppointmentRequest{DoctorID: uuid.NewString(), AppointmentDate: "2024-01-10", AppointmentTime: "10:00"}, http.StatusNotFound, "not_found"},
		{"booking for someone else", ts.patientActor(), CreateAppointmentRequest{PatientID: uuid.NewString(), DoctorID: ts.doctor.ID.String(), AppointmentDate: "2024-01-10", AppointmentTime: "10:00"}, http.StatusForbidden, "forbidden"},
		{"no actor", nil, ts.bookBody("10:00"), http.StatusUnauthorized, "unauthenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := ts.do(t, http.MethodPost, "/api/appointments", tt.actor, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(data))
			assert.Equal(t, tt.code, decodeError(t, data).Error)
		})
	}
}

func TestActorHeaderValidation(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/departments", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderUserID, uuid.NewString())
	req.Header.Set(HeaderUserRole, "nurse")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAvailabilityEndpoints(t *testing.T) {
	ts := newTestServer(t)
	base := "/api/doctors/" + ts.doctor.ID.String() + "/availability"

	available := true
	resp, data := ts.do(t, http.MethodPut, base+"/2024-01-12", ts.doctorActor(), WindowRequest{StartTime: "10:00", EndTime: "12:00", IsAvailable: &available})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var win WindowResponse
	require.NoError(t, json.Unmarshal(data, &win))
	assert.Equal(t, WindowResponse{Date: "2024-01-12", StartTime: "10:00", EndTime: "12:00", IsAvailable: true}, win)

	resp, data = ts.do(t, http.MethodPut, base+"/2024-01-12", ts.doctorActor(), WindowRequest{StartTime: "10:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decodeError(t, data).Error)

	resp, _ = ts.do(t, http.MethodPut, base+"/2024-01-12", ts.patientActor(), WindowRequest{IsAvailable: &available})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = ts.do(t, http.MethodGet, base, ts.patientActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var open []WindowResponse
	require.NoError(t, json.Unmarshal(data, &open))
	require.Len(t, open, 2)
	assert.Equal(t, "2024-01-10", open[0].Date)
	assert.Equal(t, "2024-01-12", open[1].Date)

	resp, data = ts.do(t, http.MethodPut, base, ts.doctorActor(), WeeklyAvailabilityRequest{Days: []DayRequest{
		{Date: "2024-01-09", Available: true, StartTime: "08:00", EndTime: "12:00"},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var week []DayResponse
	require.NoError(t, json.Unmarshal(data, &week))
	require.Len(t, week, 7)
	assert.Equal(t, DayResponse{Date: "2024-01-09", Available: true, StartTime: "08:00", EndTime: "12:00"}, week[0])
	assert.Equal(t, DayResponse{Date: "2024-01-10", Available: false, StartTime: "09:00", EndTime: "17:00"}, week[1])

	resp, data = ts.do(t, http.MethodPut, base, ts.doctorActor(), WeeklyAvailabilityRequest{Days: []DayRequest{{Date: "2024-02-01", Available: true}}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decodeError(t, data).Error)

	resp, data = ts.do(t, http.MethodGet, base+"/week", ts.doctorActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &week))
	assert.True(t, week[0].Available)
}

func TestDirectoryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodGet, "/api/departments", ts.patientActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deps []DepartmentResponse
	require.NoError(t, json.Unmarshal(data, &deps))
	require.Len(t, deps, 1)
	assert.Equal(t, 1, deps[0].DoctorCount)

	resp, data = ts.do(t, http.MethodGet, "/api/doctors?search=physician", ts.patientActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doctors []DoctorResponse
	require.NoError(t, json.Unmarshal(data, &doctors))
	require.Len(t, doctors, 1)
	assert.Equal(t, "General Medicine", doctors[0].Department)

	resp, _ = ts.do(t, http.MethodGet, "/api/doctors?department_id=nope", ts.patientActor(), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	doctorPath := "/api/doctors/" + ts.doctor.ID.String()

	resp, _ = ts.do(t, http.MethodDelete, doctorPath, ts.patientActor(), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = ts.do(t, http.MethodDelete, doctorPath, adminActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc DoctorResponse
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.False(t, doc.Active)

	resp, data = ts.do(t, http.MethodGet, "/api/doctors", ts.patientActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &doctors))
	assert.Empty(t, doctors)

	resp, _ = ts.do(t, http.MethodPost, doctorPath+"/reactivate", adminActor(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/doctors/"+uuid.NewString(), ts.patientActor(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/patients", ts.patientActor(), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = ts.do(t, http.MethodGet, "/api/patients?search=rahul", adminActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patients []PatientResponse
	require.NoError(t, json.Unmarshal(data, &patients))
	assert.Len(t, patients, 1)

	resp, _ = ts.do(t, http.MethodGet, "/api/patients/"+ts.patient.ID.String(), ts.doctorActor(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/patients/not-a-uuid", adminActor(), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAppointmentsFilters(t *testing.T) {
	ts := newTestServer(t)

	for _, at := range []string{"10:00", "11:00"} {
		resp, data := ts.do(t, http.MethodPost, "/api/appointments", ts.patientActor(), ts.bookBody(at))
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	}

	resp, data := ts.do(t, http.MethodGet, "/api/appointments?status=Booked&date=2024-01-10", ts.doctorActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []AppointmentResponse
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "11:00", list[0].AppointmentTime)

	resp, data = ts.do(t, http.MethodGet, "/api/appointments?status=Pending", ts.doctorActor(), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decodeError(t, data).Error)

	resp, data = ts.do(t, http.MethodGet, "/api/appointments", &appointment.Actor{ID: uuid.New(), Role: appointment.RolePatient}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Empty(t, list)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthEndpoints(t *testing.T) {
	m := metrics.NewCollector("hospital")
	router := NewRouter(RouterConfig{
		Service: appointment.NewService(appointment.NewMemRepository(), redisclient.NewLocalDayLocker(), config.Config{}),
		Metrics: m,
		Logger:  zerolog.Nop(),
		Redis:   failingPinger{},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var ready ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "degraded", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])
	assert.Equal(t, "down", ready.Dependencies["redis"])

	router = NewRouter(RouterConfig{
		Service:  appointment.NewService(appointment.NewMemRepository(), redisclient.NewLocalDayLocker(), config.Config{}),
		Metrics:  metrics.NewCollector("hospital"),
		Logger:   zerolog.Nop(),
		Postgres: failingPinger{},
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/api/departments", ts.patientActor(), nil)

	resp, data := ts.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `hospital_http_requests_total{method="GET",route="/api/departments",status="200"} 1`)
}

func TestDoctorManagementEndpoints(t *testing.T) {
	ts := newTestServer(t)
	depID := ts.doctor.DepartmentID.String()

	body := CreateDoctorRequest{
		FullName:        "Dr. Sneha Reddy",
		Specialization:  "Dermatologist",
		DepartmentID:    depID,
		Qualification:   "MBBS, MD Dermatology",
		ExperienceYears: 8,
		ConsultationFee: 600,
	}

	resp, _ := ts.do(t, http.MethodPost, "/api/doctors", ts.doctorActor(), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data := ts.do(t, http.MethodPost, "/api/doctors", adminActor(), CreateDoctorRequest{FullName: "Dr. No Department"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decodeError(t, data).Error)

	unknownDep := body
	unknownDep.DepartmentID = uuid.NewString()
	resp, data = ts.do(t, http.MethodPost, "/api/doctors", adminActor(), unknownDep)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decodeError(t, data).Error)

	resp, data = ts.do(t, http.MethodPost, "/api/doctors", adminActor(), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created DoctorResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "General Medicine", created.Department)
	assert.True(t, created.Active)

	path := "/api/doctors/" + created.ID.String()
	resp, data = ts.do(t, http.MethodPut, path, adminActor(), map[string]any{"consultation_fee": 750})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated DoctorResponse
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, 750.0, updated.ConsultationFee)
	assert.Equal(t, "Dermatologist", updated.Specialization)

	resp, _ = ts.do(t, http.MethodPut, path, adminActor(), map[string]any{"full_name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPut, path, ts.patientActor(), map[string]any{"consultation_fee": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPatientManagementEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, data := ts.do(t, http.MethodPost, "/api/patients", adminActor(), PatientRequest{FullName: "Kavya Nair", Email: "not-an-email"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_failed", decodeError(t, data).Error)

	resp, _ = ts.do(t, http.MethodPost, "/api/patients", ts.patientActor(), PatientRequest{FullName: "Kavya Nair"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = ts.do(t, http.MethodPost, "/api/patients", adminActor(), PatientRequest{
		FullName:    "Kavya Nair",
		Phone:       "9988776655",
		Email:       "kavya@example.com",
		DateOfBirth: "1992-08-15",
		BloodGroup:  "O-",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created PatientResponse
	require.NoError(t, json.Unmarshal(data, &created))
	require.NotNil(t, created.DateOfBirth)
	assert.Equal(t, "1992-08-15", *created.DateOfBirth)
	assert.True(t, created.Active)

	self := &appointment.Actor{ID: created.ID, Role: appointment.RolePatient}
	path := "/api/patients/" + created.ID.String()

	resp, data = ts.do(t, http.MethodPut, path, self, PatientRequest{FullName: "Kavya S. Nair", Phone: "9988776655", Address: "12 Marine Drive, Kochi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated PatientResponse
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, "Kavya S. Nair", updated.FullName)
	assert.Equal(t, "12 Marine Drive, Kochi", updated.Address)

	resp, _ = ts.do(t, http.MethodPut, path, ts.patientActor(), PatientRequest{FullName: "Someone Else"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, path, ts.doctorActor(), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = ts.do(t, http.MethodDelete, path, adminActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.False(t, updated.Active)

	book := ts.bookBody("10:00")
	resp, data = ts.do(t, http.MethodPost, "/api/appointments", self, book)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decodeError(t, data).Error)

	resp, _ = ts.do(t, http.MethodPost, path+"/reactivate", adminActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/appointments", self, book)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDepartmentDetailDoctorPatientsAndDashboard(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/appointments", ts.patientActor(), ts.bookBody("10:00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, data := ts.do(t, http.MethodGet, "/api/departments/"+ts.doctor.DepartmentID.String(), ts.patientActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dep DepartmentDetailResponse
	require.NoError(t, json.Unmarshal(data, &dep))
	assert.Equal(t, "General Medicine", dep.Name)
	require.Len(t, dep.Doctors, 1)
	assert.Equal(t, ts.doctor.ID, dep.Doctors[0].ID)

	resp, _ = ts.do(t, http.MethodGet, "/api/departments/"+uuid.NewString(), ts.patientActor(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	patientsPath := "/api/doctors/" + ts.doctor.ID.String() + "/patients"
	resp, data = ts.do(t, http.MethodGet, patientsPath, ts.doctorActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patients []PatientResponse
	require.NoError(t, json.Unmarshal(data, &patients))
	require.Len(t, patients, 1)
	assert.Equal(t, ts.patient.ID, patients[0].ID)

	resp, _ = ts.do(t, http.MethodGet, patientsPath, ts.patientActor(), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/dashboard", ts.doctorActor(), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = ts.do(t, http.MethodGet, "/api/dashboard", adminActor(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash DashboardResponse
	require.NoError(t, json.Unmarshal(data, &dash))
	assert.Equal(t, 1, dash.ActiveDoctors)
	assert.Equal(t, 1, dash.ActivePatients)
	assert.Equal(t, 1, dash.TotalAppointments)
	assert.Equal(t, 0, dash.TodayAppointments)
	assert.Equal(t, 1, dash.UpcomingBooked)
	require.Len(t, dash.Departments, 1)
}

func TestServiceErrorMapsAbandonedRequests(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"deadline", fmt.Errorf("acquire day lock: %w", context.DeadlineExceeded)},
		{"cancelled", fmt.Errorf("load appointments: %w", context.Canceled)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/appointments", nil)

			handleServiceError(rec, req, tc.err)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "unavailable", decodeError(t, rec.Body.Bytes()).Error)
		})
	}
}
