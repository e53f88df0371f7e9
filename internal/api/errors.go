package api

import (
	"errors"
	"net/http"

	"github.com/hackgods/practice-calendar/internal/appointment"
	"github.com/hackgods/practice-calendar/internal/calendar"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{appointment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
	{appointment.ErrClientNotFound, http.StatusNotFound, "client_not_found"},
	{appointment.ErrSessionTypeNotFound, http.StatusNotFound, "session_type_not_found"},
	{appointment.ErrSeriesNotFound, http.StatusNotFound, "series_not_found"},
	{appointment.ErrTimeBlockNotFound, http.StatusNotFound, "time_block_not_found"},

	{appointment.ErrSlotConflict, http.StatusConflict, "slot_conflict"},
	{appointment.ErrCalendarBusy, http.StatusConflict, "calendar_busy"},
	{appointment.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{appointment.ErrStatusChanged, http.StatusConflict, "status_changed"},
	{appointment.ErrNotReschedulable, http.StatusConflict, "not_reschedulable"},
	{appointment.ErrSeriesNotActive, http.StatusConflict, "series_not_active"},

	{appointment.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{appointment.ErrInvalidBookingStatus, http.StatusBadRequest, "invalid_booking_status"},
	{appointment.ErrSpansDays, http.StatusBadRequest, "spans_days"},
	{appointment.ErrInvalidSessionNumber, http.StatusBadRequest, "invalid_session_number"},
	{appointment.ErrSeriesClientMismatch, http.StatusBadRequest, "series_client_mismatch"},
	{appointment.ErrInvalidSeriesLength, http.StatusBadRequest, "invalid_series_length"},
	{calendar.ErrInvalidInterval, http.StatusBadRequest, "invalid_interval"},
	{calendar.ErrInvalidDateRange, http.StatusBadRequest, "invalid_date_range"},
	{calendar.ErrBlockTooLong, http.StatusBadRequest, "time_block_too_long"},
	{calendar.ErrEmptyTitle, http.StatusBadRequest, "title_required"},
	{calendar.ErrInvalidClock, http.StatusBadRequest, "invalid_time"},
}

// handleServiceError maps service errors to status codes. Anything unknown
// is a 500 carrying the error text as is.
func handleServiceError(w http.ResponseWriter, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
