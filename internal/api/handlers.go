package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hernannicolaus/api-turnos-hospital/internal/scheduling"
)

// Accepted timestamp layouts, most specific first. The second and
// third accept naive local times without a zone offset, which is how
// most clients send them.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Patients

func createPatientHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.RegisterPatient(r.Context(), req.Name, req.IdentityNumber)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listPatientsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			resp = append(resp, toPatientResponse(&patients[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPatientHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		p, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

// Professionals

func createProfessionalHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProfessionalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.RegisterProfessional(r.Context(), req.Name, req.Specialty)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toProfessionalResponse(p))
	}
}

func listProfessionalsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionals, err := svc.ListProfessionals(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ProfessionalResponse, 0, len(professionals))
		for i := range professionals {
			resp = append(resp, toProfessionalResponse(&professionals[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getProfessionalHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		p, err := svc.GetProfessional(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toProfessionalResponse(p))
	}
}

// Appointments

func createAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := parseTimestamp(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be an ISO-8601 timestamp")
			return
		}

		appt, err := svc.BookAppointment(r.Context(), req.PatientID, req.ProfessionalID, start, req.DurationMinutes)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, ok := parseListFilter(w, r)
		if !ok {
			return
		}

		appts, err := svc.ListAppointments(r.Context(), filter)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func attendAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.AttendAppointment(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// Helpers

func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseListFilter(w http.ResponseWriter, r *http.Request) (scheduling.ListFilter, bool) {
	var filter scheduling.ListFilter
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be an ISO-8601 timestamp")
			return filter, false
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be an ISO-8601 timestamp")
			return filter, false
		}
		filter.To = &t
	}
	if v := q.Get("professional_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be an integer")
			return filter, false
		}
		filter.ProfessionalID = &id
	}
	if v := q.Get("status"); v != "" {
		status, err := scheduling.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be reserved, cancelled or attended")
			return filter, false
		}
		filter.Status = &status
	}

	return filter, true
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrOverlappingAppointment):
		writeError(w, http.StatusConflict, "overlapping_appointment", err.Error())
	case errors.Is(err, scheduling.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrScheduleBusy):
		writeError(w, http.StatusConflict, "schedule_busy", "professional schedule is being booked, please retry shortly")
	default:
		// Infrastructure errors can carry DSNs or SQL fragments; keep
		// those out of the response body.
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Details: details,
	})
}
