package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/practice-calendar/internal/appointment"
	"github.com/hackgods/practice-calendar/internal/calendar"
)

func dayViewHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := uuidParam(w, r, "practitionerID")
		if !ok {
			return
		}
		date, ok := dateParam(w, r, svc.Location())
		if !ok {
			return
		}
		exclude, ok := excludeQuery(w, r)
		if !ok {
			return
		}

		view, err := svc.DayView(r.Context(), practitionerID, date, exclude)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDayViewResponse(view))
	}
}

func slotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := uuidParam(w, r, "practitionerID")
		if !ok {
			return
		}
		date, ok := dateParam(w, r, svc.Location())
		if !ok {
			return
		}
		exclude, ok := excludeQuery(w, r)
		if !ok {
			return
		}

		duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be a positive number of minutes")
			return
		}

		options, err := svc.AvailableSlots(r.Context(), practitionerID, date, duration, exclude)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SlotsResponse{
			Date:            date.Format(time.DateOnly),
			DurationMinutes: duration,
			Slots:           options,
		})
	}
}

func calendarSettingsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal := svc.Calendar()
		writeJSON(w, http.StatusOK, CalendarSettingsResponse{
			Timezone:        cal.Location.String(),
			StartHour:       cal.StartHour,
			EndHour:         cal.EndHour,
			SlotMinutes:     cal.SlotMinutes,
			BookingStart:    calendar.FormatMinute(cal.BookingStart),
			BookingEnd:      calendar.FormatMinute(cal.BookingEnd),
			DragThresholdPx: cal.DragThreshold,
		})
	}
}

func dateParam(w http.ResponseWriter, r *http.Request, loc *time.Location) (time.Time, bool) {
	date, err := time.ParseInLocation(time.DateOnly, chi.URLParam(r, "date"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func excludeQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("exclude")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_exclude", "exclude must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
