package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medbook/appointment-booking/internal/doctor"
)

func createDoctorHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor", err.Error())
			return
		}

		schedule := make([]doctor.AvailabilityTemplate, 0, len(req.Schedule))
		for _, t := range req.Schedule {
			schedule = append(schedule, doctor.AvailabilityTemplate{
				DayOfWeek: doctor.DayOfWeek(t.DayOfWeek),
				StartTime: t.StartTime,
				EndTime:   t.EndTime,
			})
		}

		created, err := svc.Create(r.Context(), &doctor.Doctor{
			Name:      req.Name,
			Specialty: req.Specialty,
			Schedule:  schedule,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(created))
	}
}

func listDoctorsHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.List(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(docs))
		for i := range docs {
			resp = append(resp, toDoctorResponse(&docs[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getDoctorHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		doc, err := svc.Get(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(doc))
	}
}

func updateDoctorHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor", err.Error())
			return
		}

		existing, err := svc.Get(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		if req.Name != nil {
			existing.Name = *req.Name
		}
		if req.Specialty != nil {
			existing.Specialty = *req.Specialty
		}
		if req.Schedule != nil {
			schedule := make([]doctor.AvailabilityTemplate, 0, len(*req.Schedule))
			for _, t := range *req.Schedule {
				schedule = append(schedule, doctor.AvailabilityTemplate{
					DayOfWeek: doctor.DayOfWeek(t.DayOfWeek),
					StartTime: t.StartTime,
					EndTime:   t.EndTime,
				})
			}
			existing.Schedule = schedule
		}

		updated, err := svc.Update(r.Context(), existing)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDoctorResponse(updated))
	}
}

func deleteDoctorHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listDoctorsBySpecialtyHandler(svc *doctor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialty := chi.URLParam(r, "specialty")

		docs, err := svc.ListBySpecialty(r.Context(), specialty)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(docs))
		for i := range docs {
			resp = append(resp, toDoctorResponse(&docs[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
