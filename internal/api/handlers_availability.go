package api

import (
	"net/http"
	"time"

	"github.com/medbook/appointment-booking/internal/availability"
)

func generateAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		from, ok := parseDateQuery(w, r, "from")
		if !ok {
			return
		}
		to, ok := parseDateQuery(w, r, "to")
		if !ok {
			return
		}
		if to.Before(from) {
			writeError(w, http.StatusBadRequest, "invalid_range", "to must not precede from")
			return
		}

		generated, err := svc.Generate(r.Context(), id, from, to)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]AvailabilityResponse, 0, len(generated))
		for i := range generated {
			resp = append(resp, toAvailabilityResponse(&generated[i]))
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func getAvailabilityHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		date, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}

		rec, err := svc.GetOrGenerate(r.Context(), id, date)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(rec))
	}
}

func listAvailableSlotsHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		date, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), id, date)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]TimeSlotDTO, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, TimeSlotDTO{
				StartTime:     s.StartTime,
				EndTime:       s.EndTime,
				Available:     s.Available,
				AppointmentID: s.AppointmentID,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func findNextSlotHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		fromDate, ok := parseDateQuery(w, r, "from_date")
		if !ok {
			return
		}

		fromTime := r.URL.Query().Get("from_time")
		if !clockPattern.MatchString(fromTime) {
			writeError(w, http.StatusBadRequest, "invalid_time", "from_time must be HH:mm")
			return
		}

		ref, err := svc.FindNextSlot(r.Context(), id, fromDate, fromTime)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if ref == nil {
			writeError(w, http.StatusNotFound, "no_slot_available",
				"no open slot within the search horizon")
			return
		}

		writeJSON(w, http.StatusOK, NextSlotResponse{
			DoctorID:  ref.DoctorID,
			Date:      ref.Date.Format(availability.DateFormat),
			StartTime: ref.StartTime,
		})
	}
}

func parseDateQuery(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)

	date, err := time.Parse(availability.DateFormat, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}

	return date, true
}
