package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/medbook/appointment-booking/internal/availability"
	"github.com/medbook/appointment-booking/internal/doctor"
	redisclient "github.com/medbook/appointment-booking/internal/redis"
	"github.com/medbook/appointment-booking/internal/solicitation"
)

func createSolicitationHandler(svc *solicitation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSolicitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		requestedDate, err := req.validate()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_solicitation", err.Error())
			return
		}

		created, err := svc.Submit(r.Context(), &solicitation.Solicitation{
			PatientName:   req.PatientName,
			PatientAge:    req.PatientAge,
			PatientPhone:  req.PatientPhone,
			PatientEmail:  req.PatientEmail,
			Specialty:     req.Specialty,
			RequestedDate: requestedDate,
			RequestedTime: req.RequestedTime,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSolicitationResponse(created))
	}
}

func getSolicitationHandler(svc *solicitation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		sol, err := svc.Get(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSolicitationResponse(sol))
	}
}

func listSuggestedHandler(svc *solicitation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 20)
		offset := queryInt(r, "offset", 0)

		items, total, err := svc.ListSuggested(r.Context(), limit, offset)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := PagedSolicitationsResponse{
			Items:  make([]SolicitationResponse, 0, len(items)),
			Total:  total,
			Limit:  limit,
			Offset: offset,
		}
		for i := range items {
			resp.Items = append(resp.Items, toSolicitationResponse(&items[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func confirmSuggestionHandler(svc *solicitation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req ConfirmSuggestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Accept == nil {
			writeError(w, http.StatusBadRequest, "invalid_confirmation", "accept is required")
			return
		}

		updated, err := svc.ConfirmSuggestion(r.Context(), id, *req.Accept)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSolicitationResponse(updated))
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// handleDomainError maps core errors onto HTTP statuses: missing entities are
// 404, state guards and malformed suggestions are 400, lock contention is
// 409, everything else 500.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, doctor.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, solicitation.ErrSolicitationNotFound):
		writeError(w, http.StatusNotFound, "solicitation_not_found", err.Error())
	case errors.Is(err, availability.ErrAvailabilityNotFound):
		writeError(w, http.StatusNotFound, "availability_not_found", err.Error())
	case errors.Is(err, solicitation.ErrNoDoctorsForSpecialty):
		writeError(w, http.StatusNotFound, "no_doctors_for_specialty", err.Error())
	case errors.Is(err, solicitation.ErrNoSuggestedSolicitation),
		errors.Is(err, solicitation.ErrSuggestionIncomplete):
		writeError(w, http.StatusBadRequest, "no_suggested_appointment", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "calendar_busy", "calendar is being updated, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
