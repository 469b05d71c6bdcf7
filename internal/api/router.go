package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
)

type RouterConfig struct {
	Service  *appointment.Service
	Metrics  *metrics.Collector
	Logger   zerolog.Logger
	Postgres Pinger // nil in memory mode
	Redis    Pinger // nil when locking is in-process
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware)
	r.Use(MetricsMiddleware(cfg.Metrics))

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	h := NewHandler(cfg.Service, cfg.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Get("/dashboard", h.dashboard)
		r.Get("/departments", h.listDepartments)
		r.Get("/departments/{id}", h.getDepartment)

		r.Route("/doctors", func(r chi.Router) {
			r.Get("/", h.listDoctors)
			r.Post("/", h.createDoctor)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getDoctor)
				r.Put("/", h.updateDoctor)
				r.Delete("/", h.setDoctorActive(false))
				r.Post("/reactivate", h.setDoctorActive(true))
				r.Get("/patients", h.doctorPatients)

				r.Get("/availability", h.openWindows)
				r.Put("/availability", h.setWeeklyAvailability)
				r.Get("/availability/week", h.weeklyAvailability)
				r.Put("/availability/{date}", h.setWindow)
			})
		})

		r.Route("/patients", func(r chi.Router) {
			r.Get("/", h.listPatients)
			r.Post("/", h.createPatient)
			r.Get("/{id}", h.getPatient)
			r.Put("/{id}", h.updatePatient)
			r.Delete("/{id}", h.setPatientActive(false))
			r.Post("/{id}/reactivate", h.setPatientActive(true))
			r.Get("/{id}/history", h.medicalHistory)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.listAppointments)
			r.Post("/", h.createAppointment)
			r.Get("/{id}", h.getAppointment)
			r.Delete("/{id}", h.cancelAppointment)
			r.Post("/{id}/complete", h.completeAppointment)
			r.Put("/{id}/follow-up", h.setFollowUp)
		})
	})

	return r
}
