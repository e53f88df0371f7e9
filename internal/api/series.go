package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/practice-calendar/internal/appointment"
)

func createSeriesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSeriesRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.PractitionerID == uuid.Nil || req.ClientID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "missing_field", "practitioner_id and client_id are required")
			return
		}

		series, err := svc.StartSeries(r.Context(), req.PractitionerID, req.ClientID, req.TotalSessions)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSeriesResponse(series))
	}
}

func getSeriesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		series, err := svc.GetSeries(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSeriesResponse(series))
	}
}
