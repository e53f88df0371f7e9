package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/practice-calendar/internal/appointment"
)

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.PractitionerID == uuid.Nil || req.ClientID == uuid.Nil || req.SessionTypeID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "missing_field", "practitioner_id, client_id and session_type_id are required")
			return
		}

		appt, err := svc.BookAppointment(r.Context(), appointment.BookRequest{
			PractitionerID: req.PractitionerID,
			ClientID:       req.ClientID,
			SessionTypeID:  req.SessionTypeID,
			SeriesID:       req.SeriesID,
			SessionNumber:  req.SessionNumber,
			StartsAt:       req.StartsAt,
			EndsAt:         req.EndsAt,
			Status:         appointment.Status(req.Status),
		})
		if err != nil {
			if appt != nil && appointment.IsPartialFailure(err) {
				writePartialFailure(w, appt, err)
				return
			}
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func changeStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var req ChangeStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		change, err := svc.ChangeStatus(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			if change != nil && appointment.IsPartialFailure(err) {
				writePartialFailure(w, change.Appointment, err)
				return
			}
			handleServiceError(w, err)
			return
		}

		resp := StatusChangeResponse{
			Appointment:    toAppointmentResponse(change.Appointment),
			PreviousStatus: string(change.Previous),
		}
		if change.Series != nil {
			s := toSeriesResponse(change.Series)
			resp.Series = &s
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func rescheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var req RescheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		moved, err := svc.Reschedule(r.Context(), id, req.StartsAt, req.EndsAt)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(moved))
	}
}

// writePartialFailure reports a primary write that succeeded while the
// series write did not.
func writePartialFailure(w http.ResponseWriter, appt *appointment.Appointment, err error) {
	writeJSON(w, http.StatusMultiStatus, PartialFailureResponse{
		Error:       "series_update_failed",
		Details:     err.Error(),
		Appointment: toAppointmentResponse(appt),
	})
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
