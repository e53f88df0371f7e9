package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/practice-calendar/internal/appointment"
	"github.com/hackgods/practice-calendar/internal/calendar"
)

type BookAppointmentRequest struct {
	PractitionerID uuid.UUID  `json:"practitioner_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	SessionTypeID  uuid.UUID  `json:"session_type_id"`
	SeriesID       *uuid.UUID `json:"series_id,omitempty"`
	SessionNumber  *int       `json:"session_number,omitempty"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         time.Time  `json:"ends_at"`
	Status         string     `json:"status,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type RescheduleRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// CreateTimeBlockRequest covers single and multi-day blocks. Dates are
// YYYY-MM-DD and times HH:MM in the practice time zone; times are ignored
// for all-day blocks.
type CreateTimeBlockRequest struct {
	PractitionerID uuid.UUID `json:"practitioner_id"`
	Title          string    `json:"title"`
	Notes          string    `json:"notes,omitempty"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date,omitempty"`
	AllDay         bool      `json:"all_day"`
	StartTime      string    `json:"start_time,omitempty"`
	EndTime        string    `json:"end_time,omitempty"`
}

type UpdateTimeBlockRequest struct {
	Title    string    `json:"title"`
	Notes    *string   `json:"notes,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type CreateSeriesRequest struct {
	PractitionerID uuid.UUID `json:"practitioner_id"`
	ClientID       uuid.UUID `json:"client_id"`
	TotalSessions  int       `json:"total_sessions"`
}

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	PractitionerID uuid.UUID  `json:"practitioner_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	SessionTypeID  uuid.UUID  `json:"session_type_id"`
	SeriesID       *uuid.UUID `json:"series_id,omitempty"`
	SessionNumber  *int       `json:"session_number,omitempty"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         time.Time  `json:"ends_at"`
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	NextStatuses   []string   `json:"next_statuses"`
	Draggable      bool       `json:"draggable"`
}

type SeriesResponse struct {
	ID             uuid.UUID  `json:"id"`
	PractitionerID uuid.UUID  `json:"practitioner_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	TotalSessions  int        `json:"total_sessions"`
	CurrentSession int        `json:"current_session"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type StatusChangeResponse struct {
	Appointment    AppointmentResponse `json:"appointment"`
	PreviousStatus string              `json:"previous_status"`
	Series         *SeriesResponse     `json:"series,omitempty"`
}

type TimeBlockResponse struct {
	ID             uuid.UUID `json:"id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	Title          string    `json:"title"`
	Notes          *string   `json:"notes,omitempty"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
}

type DayItemResponse struct {
	Kind          calendar.BusyKind    `json:"kind"`
	Appointment   *AppointmentResponse `json:"appointment,omitempty"`
	TimeBlock     *TimeBlockResponse   `json:"time_block,omitempty"`
	Start         string               `json:"start"`
	End           string               `json:"end"`
	OffsetPercent float64              `json:"offset_percent"`
	HeightPercent float64              `json:"height_percent"`
	Draggable     bool                 `json:"draggable"`
}

type DayViewResponse struct {
	Date   string              `json:"date"`
	AllDay []TimeBlockResponse `json:"all_day"`
	Items  []DayItemResponse   `json:"items"`
	Ranges []calendar.Range    `json:"blocked_ranges"`
}

type SlotsResponse struct {
	Date            string                `json:"date"`
	DurationMinutes int                   `json:"duration_minutes"`
	Slots           []calendar.SlotOption `json:"slots"`
}

// CalendarSettingsResponse is what a client needs to render the grid and
// drive drag gestures the same way the server validates them.
type CalendarSettingsResponse struct {
	Timezone        string  `json:"timezone"`
	StartHour       int     `json:"start_hour"`
	EndHour         int     `json:"end_hour"`
	SlotMinutes     int     `json:"slot_minutes"`
	BookingStart    string  `json:"booking_start"`
	BookingEnd      string  `json:"booking_end"`
	DragThresholdPx float64 `json:"drag_threshold_px"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PartialFailureResponse is returned when the appointment was written but
// its series was not. The client must reload instead of retrying.
type PartialFailureResponse struct {
	Error       string              `json:"error"`
	Details     string              `json:"details"`
	Appointment AppointmentResponse `json:"appointment"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	next := appointment.NextStatuses(a.Status)
	statuses := make([]string, len(next))
	for i, s := range next {
		statuses[i] = string(s)
	}
	return AppointmentResponse{
		ID:             a.ID,
		PractitionerID: a.PractitionerID,
		ClientID:       a.ClientID,
		SessionTypeID:  a.SessionTypeID,
		SeriesID:       a.SeriesID,
		SessionNumber:  a.SessionNumber,
		StartsAt:       a.StartsAt,
		EndsAt:         a.EndsAt,
		Status:         string(a.Status),
		PaymentStatus:  string(a.PaymentStatus),
		NextStatuses:   statuses,
		Draggable:      a.Status.Draggable(),
	}
}

func toSeriesResponse(s *appointment.Series) SeriesResponse {
	return SeriesResponse{
		ID:             s.ID,
		PractitionerID: s.PractitionerID,
		ClientID:       s.ClientID,
		TotalSessions:  s.TotalSessions,
		CurrentSession: s.CurrentSession,
		Status:         string(s.Status),
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
	}
}

func toTimeBlockResponse(b *appointment.TimeBlock) TimeBlockResponse {
	return TimeBlockResponse{
		ID:             b.ID,
		PractitionerID: b.PractitionerID,
		Title:          b.Title,
		Notes:          b.Notes,
		StartsAt:       b.StartsAt,
		EndsAt:         b.EndsAt,
	}
}

func toDayViewResponse(v *appointment.DayView) DayViewResponse {
	resp := DayViewResponse{
		Date:   v.Date.Format(time.DateOnly),
		AllDay: make([]TimeBlockResponse, 0, len(v.AllDay)),
		Items:  make([]DayItemResponse, 0, len(v.Timed)),
		Ranges: v.Ranges,
	}
	if resp.Ranges == nil {
		resp.Ranges = []calendar.Range{}
	}
	for i := range v.AllDay {
		resp.AllDay = append(resp.AllDay, toTimeBlockResponse(&v.AllDay[i]))
	}
	for _, item := range v.Timed {
		out := DayItemResponse{
			Kind:          item.Kind,
			Start:         calendar.FormatMinute(item.Start),
			End:           calendar.FormatMinute(item.End),
			OffsetPercent: item.OffsetPercent,
			HeightPercent: item.HeightPercent,
			Draggable:     item.Draggable,
		}
		if item.Appointment != nil {
			a := toAppointmentResponse(item.Appointment)
			out.Appointment = &a
		}
		if item.TimeBlock != nil {
			b := toTimeBlockResponse(item.TimeBlock)
			out.TimeBlock = &b
		}
		resp.Items = append(resp.Items, out)
	}
	return resp
}
