package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
	"github.com/hackgods/hospital-scheduling/internal/metrics"
)

type Handler struct {
	svc      *appointment.Service
	metrics  *metrics.Collector
	validate *validator.Validate
}

func NewHandler(svc *appointment.Service, m *metrics.Collector) *Handler {
	return &Handler{
		svc:      svc,
		metrics:  m,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// decode reads a JSON body into dst and runs struct validation.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+" failed on "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// Appointments

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor := actorFrom(r.Context())

	doctorID := uuid.MustParse(req.DoctorID)
	patientID := actor.ID
	if req.PatientID != "" {
		patientID = uuid.MustParse(req.PatientID)
	}

	appt, err := h.svc.Book(r.Context(), actor, appointment.BookRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      req.AppointmentDate,
		Time:      req.AppointmentTime,
		Reason:    req.Reason,
	})
	h.metrics.BookingsTotal.WithLabelValues(bookingOutcome(err)).Inc()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.ListAppointments(r.Context(), actorFrom(r.Context()), q.Get("status"), q.Get("date"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponses(list))
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.GetAppointment(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponse(detail))
}

func (h *Handler) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	appt, err := h.svc.Cancel(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.TransitionsTotal.WithLabelValues(string(appt.Status)).Inc()
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handler) completeAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CompleteAppointmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	appt, treatment, err := h.svc.Complete(r.Context(), actorFrom(r.Context()), id, appointment.CompleteRequest{
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		Notes:        req.Notes,
		FollowUpDate: req.FollowUpDate,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.metrics.TransitionsTotal.WithLabelValues(string(appt.Status)).Inc()

	writeJSON(w, http.StatusOK, CompleteAppointmentResponse{
		Appointment: toAppointmentResponse(appt),
		Treatment:   toTreatmentResponse(treatment),
	})
}

func (h *Handler) setFollowUp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req FollowUpRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.svc.SetFollowUp(r.Context(), actorFrom(r.Context()), id, req.FollowUpDate)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTreatmentResponse(t))
}

// Availability

func (h *Handler) openWindows(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	windows, err := h.svc.OpenWindows(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	out := make([]WindowResponse, 0, len(windows))
	for i := range windows {
		out = append(out, toWindowResponse(&windows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) weeklyAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	days, err := h.svc.WeeklyAvailability(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponses(days))
}

func (h *Handler) setWeeklyAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req WeeklyAvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	days := make([]appointment.DayRequest, 0, len(req.Days))
	for _, d := range req.Days {
		days = append(days, appointment.DayRequest{
			Date:      d.Date,
			Available: d.Available,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
		})
	}

	result, err := h.svc.SetWeeklyAvailability(r.Context(), actorFrom(r.Context()), id, days)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponses(result))
}

func (h *Handler) setWindow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req WindowRequest
	if !h.decode(w, r, &req) {
		return
	}

	win, err := h.svc.SetWindow(r.Context(), actorFrom(r.Context()), id, appointment.WindowRequest{
		Date:        chi.URLParam(r, "date"),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: *req.IsAvailable,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWindowResponse(win))
}

func toDayResponses(days []appointment.DayAvailability) []DayResponse {
	out := make([]DayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, DayResponse{
			Date:      appointment.FormatDate(d.Date),
			Available: d.Available,
			StartTime: d.StartTime.String(),
			EndTime:   d.EndTime.String(),
		})
	}
	return out
}

// Directory

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.svc.ListDepartments(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	out := make([]DepartmentResponse, 0, len(deps))
	for i := range deps {
		out = append(out, toDepartmentResponse(&deps[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := appointment.DoctorFilter{Search: q.Get("search")}
	if raw := q.Get("department_id"); raw != "" {
		dep, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_department_id", "department_id must be a valid UUID")
			return
		}
		f.DepartmentID = &dep
	}

	doctors, err := h.svc.ListDoctors(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponses(doctors))
}

func (h *Handler) getDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.svc.GetDoctor(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(d))
}

func (h *Handler) setDoctorActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		d, err := h.svc.SetDoctorActive(r.Context(), actorFrom(r.Context()), id, active)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.svc.ListPatients(r.Context(), actorFrom(r.Context()), r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponses(patients))
}

func (h *Handler) getPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetPatient(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *Handler) medicalHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.svc.MedicalHistory(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponses(list))
}

func (h *Handler) createDoctor(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.svc.CreateDoctor(r.Context(), actorFrom(r.Context()), appointment.NewDoctor{
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		DepartmentID:    uuid.MustParse(req.DepartmentID),
		Phone:           req.Phone,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		ConsultationFee: req.ConsultationFee,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDoctorResponse(d))
}

func (h *Handler) updateDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateDoctorRequest
	if !h.decode(w, r, &req) {
		return
	}

	upd := appointment.DoctorUpdate{
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		Phone:           req.Phone,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		ConsultationFee: req.ConsultationFee,
	}
	if req.DepartmentID != nil {
		dep := uuid.MustParse(*req.DepartmentID)
		upd.DepartmentID = &dep
	}

	d, err := h.svc.UpdateDoctor(r.Context(), actorFrom(r.Context()), id, upd)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(d))
}

func (h *Handler) doctorPatients(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	patients, err := h.svc.ListDoctorPatients(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponses(patients))
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePatient(r.Context(), actorFrom(r.Context()), req.profile())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPatientResponse(p))
}

func (h *Handler) updatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req PatientRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.svc.UpdatePatient(r.Context(), actorFrom(r.Context()), id, req.profile())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *Handler) setPatientActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		p, err := h.svc.SetPatientActive(r.Context(), actorFrom(r.Context()), id, active)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func (h *Handler) getDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	dep, doctors, err := h.svc.GetDepartment(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DepartmentDetailResponse{
		DepartmentResponse: toDepartmentResponse(dep),
		Doctors:            toDoctorResponses(doctors),
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), actorFrom(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	deps := make([]DepartmentResponse, 0, len(d.Departments))
	for i := range d.Departments {
		deps = append(deps, toDepartmentResponse(&d.Departments[i]))
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		ActiveDoctors:     d.ActiveDoctors,
		ActivePatients:    d.ActivePatients,
		TotalAppointments: d.TotalAppointments,
		TodayAppointments: d.TodayAppointments,
		UpcomingBooked:    d.UpcomingBooked,
		Departments:       deps,
	})
}

// Errors

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, appointment.ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, appointment.ErrOutOfWindow):
		return "out_of_window"
	case errors.Is(err, appointment.ErrDoctorUnavailable):
		return "doctor_unavailable"
	case errors.Is(err, appointment.ErrPastDate):
		return "past_date"
	case errors.Is(err, appointment.ErrStorageConflict):
		return "conflict"
	case errors.Is(err, appointment.ErrStorage):
		return "error"
	default:
		return "rejected"
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
	case errors.Is(err, appointment.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, appointment.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())
	case errors.Is(err, appointment.ErrOutOfWindow):
		writeError(w, http.StatusUnprocessableEntity, "out_of_window", err.Error())
	case errors.Is(err, appointment.ErrDoctorUnavailable):
		writeError(w, http.StatusConflict, "doctor_unavailable", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrStorageConflict):
		writeError(w, http.StatusConflict, "storage_conflict", "slot is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("request abandoned")
		writeError(w, http.StatusServiceUnavailable, "unavailable", "request was cancelled or timed out, please retry")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
