package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/practice-calendar/internal/appointment"
	"github.com/hackgods/practice-calendar/internal/appointment/appointmenttest"
	"github.com/hackgods/practice-calendar/internal/config"
	"github.com/hackgods/practice-calendar/internal/metrics"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var healthy = pingFunc(func(context.Context) error { return nil })

type testServer struct {
	handler      http.Handler
	repo         *appointmenttest.Repository
	practitioner uuid.UUID
	client       appointment.Client
	sessionType  appointment.SessionType
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := appointmenttest.NewRepository()
	practitioner := uuid.New()
	client := repo.AddClient(appointment.Client{PractitionerID: practitioner, Name: "Grace Hopper"})
	st := repo.AddSessionType(appointment.SessionType{PractitionerID: practitioner, Name: "Follow-up", DurationMinutes: 45})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := appointment.NewService(repo, appointmenttest.NewLocker(), config.DefaultCalendar(), zap.NewNop(), m)

	return &testServer{
		handler: NewRouter(RouterConfig{
			Service:  svc,
			Postgres: healthy,
			Redis:    healthy,
			Logger:   zap.NewNop(),
			Metrics:  m,
			Gatherer: reg,
			Env:      "test",
			Version:  "dev",
		}),
		repo:         repo,
		practitioner: practitioner,
		client:       client,
		sessionType:  st,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) bookBody(start, end time.Time) BookAppointmentRequest {
	return BookAppointmentRequest{
		PractitionerID: s.practitioner,
		ClientID:       s.client.ID,
		SessionTypeID:  s.sessionType.ID,
		StartsAt:       start,
		EndsAt:         end,
	}
}

var testDay = time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)

func clock(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[LivenessResponse](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, ready.Dependencies)
}

func TestReadinessDegraded(t *testing.T) {
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	cases := []struct {
		name       string
		postgres   Pinger
		redis      Pinger
		wantCode   int
		wantStatus string
	}{
		{"redis down", healthy, down, http.StatusOK, "degraded"},
		{"postgres down", down, healthy, http.StatusServiceUnavailable, "error"},
		{"both down", down, down, http.StatusServiceUnavailable, "error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.postgres, tc.redis, "test", "dev")
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantStatus, decode[ReadinessResponse](t, rec).Status)
		})
	}
}

func TestBookAndFetchAppointment(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/appointments", s.bookBody(clock(10, 0), clock(10, 45)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[AppointmentResponse](t, rec)
	assert.Equal(t, "requested", created.Status)
	assert.Equal(t, []string{"confirmed", "cancelled"}, created.NextStatuses)
	assert.True(t, created.Draggable)

	rec = s.do(t, http.MethodGet, "/appointments/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[AppointmentResponse](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/appointments", s.bookBody(clock(10, 30), clock(11, 15)))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_conflict", decode[ErrorResponse](t, rec).Error)
}

func TestBookAppointmentBadInput(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/appointments", map[string]any{"practitioner_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_body", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, "/appointments", BookAppointmentRequest{StartsAt: clock(9, 0), EndsAt: clock(10, 0)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_field", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, "/appointments", s.bookBody(clock(23, 30), clock(24, 30)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "spans_days", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/appointments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "appointment_not_found", decode[ErrorResponse](t, rec).Error)
}

func TestChangeStatus(t *testing.T) {
	s := newTestServer(t)
	series := s.repo.AddSeries(appointment.Series{
		PractitionerID: s.practitioner,
		ClientID:       s.client.ID,
		TotalSessions:  5,
		CurrentSession: 3,
		Status:         appointment.SeriesActive,
	})
	n := 3
	appt := s.repo.AddAppointment(appointment.Appointment{
		PractitionerID: s.practitioner,
		ClientID:       s.client.ID,
		SessionTypeID:  s.sessionType.ID,
		SeriesID:       &series.ID,
		SessionNumber:  &n,
		StartsAt:       clock(10, 0),
		EndsAt:         clock(11, 0),
		Status:         appointment.StatusConfirmed,
	})
	path := "/appointments/" + appt.ID.String() + "/status"

	rec := s.do(t, http.MethodPost, path, ChangeStatusRequest{Status: "completed"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_status_transition", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPost, path, ChangeStatusRequest{Status: "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[StatusChangeResponse](t, rec)
	assert.Equal(t, "confirmed", resp.PreviousStatus)
	assert.Equal(t, "cancelled", resp.Appointment.Status)
	assert.Empty(t, resp.Appointment.NextStatuses)
	require.NotNil(t, resp.Series)
	assert.Equal(t, 2, resp.Series.CurrentSession)
}

func TestChangeStatusPartialFailure(t *testing.T) {
	s := newTestServer(t)
	series := s.repo.AddSeries(appointment.Series{
		PractitionerID: s.practitioner,
		ClientID:       s.client.ID,
		TotalSessions:  5,
		CurrentSession: 2,
		Status:         appointment.SeriesActive,
	})
	n := 2
	appt := s.repo.AddAppointment(appointment.Appointment{
		PractitionerID: s.practitioner,
		ClientID:       s.client.ID,
		SessionTypeID:  s.sessionType.ID,
		SeriesID:       &series.ID,
		SessionNumber:  &n,
		StartsAt:       clock(10, 0),
		EndsAt:         clock(11, 0),
		Status:         appointment.StatusConfirmed,
	})
	s.repo.UpdateSeriesErr = errors.New("connection reset")

	rec := s.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/status", ChangeStatusRequest{Status: "no_show"})
	require.Equal(t, http.StatusMultiStatus, rec.Code)

	resp := decode[PartialFailureResponse](t, rec)
	assert.Equal(t, "series_update_failed", resp.Error)
	assert.Contains(t, resp.Details, "appointment marked no_show")
	assert.Equal(t, "no_show", resp.Appointment.Status)
}

func TestReschedule(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/appointments", s.bookBody(clock(10, 0), clock(10, 45)))
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[AppointmentResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/appointments", s.bookBody(clock(13, 0), clock(13, 45)))
	require.Equal(t, http.StatusCreated, rec.Code)

	path := "/appointments/" + first.ID.String() + "/reschedule"

	rec = s.do(t, http.MethodPost, path, RescheduleRequest{StartsAt: clock(10, 15), EndsAt: clock(11, 0)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, clock(10, 15).Equal(decode[AppointmentResponse](t, rec).StartsAt))

	rec = s.do(t, http.MethodPost, path, RescheduleRequest{StartsAt: clock(12, 30), EndsAt: clock(13, 15)})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_conflict", decode[ErrorResponse](t, rec).Error)
}

func TestSlots(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/appointments", s.bookBody(clock(10, 0), clock(10, 45)))
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decode[AppointmentResponse](t, rec)

	base := fmt.Sprintf("/practitioners/%s/days/2025-03-04/slots", s.practitioner)

	rec = s.do(t, http.MethodGet, base+"?duration=45", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	slots := decode[SlotsResponse](t, rec)
	assert.Equal(t, "2025-03-04", slots.Date)

	disabled := map[string]bool{}
	for _, o := range slots.Slots {
		disabled[o.Label] = o.Disabled
	}
	assert.False(t, disabled["09:15"])
	assert.True(t, disabled["09:30"])
	assert.True(t, disabled["10:30"])
	assert.False(t, disabled["10:45"])

	rec = s.do(t, http.MethodGet, base+"?duration=45&exclude="+appt.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, o := range decode[SlotsResponse](t, rec).Slots {
		assert.False(t, o.Disabled, o.Label)
	}

	rec = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_duration", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/practitioners/%s/days/04-03-2025/slots?duration=45", s.practitioner), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_date", decode[ErrorResponse](t, rec).Error)
}

func TestTimeBlocksAndDayView(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/time-blocks", CreateTimeBlockRequest{
		PractitionerID: s.practitioner,
		Title:          "Supervision",
		StartDate:      "2025-03-04",
		EndDate:        "2025-03-05",
		StartTime:      "12:00",
		EndTime:        "13:30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	blocks := decode[[]TimeBlockResponse](t, rec)
	require.Len(t, blocks, 2)

	rec = s.do(t, http.MethodPost, "/time-blocks", CreateTimeBlockRequest{
		PractitionerID: s.practitioner,
		Title:          "Training",
		StartDate:      "2025-03-04",
		AllDay:         true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/practitioners/%s/days/2025-03-04", s.practitioner), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[DayViewResponse](t, rec)
	require.Len(t, view.AllDay, 1)
	assert.Equal(t, "Training", view.AllDay[0].Title)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "12:00", view.Items[0].Start)
	assert.Equal(t, "13:30", view.Items[0].End)
	assert.Len(t, view.Ranges, 2)

	rec = s.do(t, http.MethodPut, "/time-blocks/"+blocks[1].ID.String(), UpdateTimeBlockRequest{
		Title:    "Supervision (moved)",
		StartsAt: blocks[1].StartsAt.Add(time.Hour),
		EndsAt:   blocks[1].EndsAt.Add(time.Hour),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Supervision (moved)", decode[TimeBlockResponse](t, rec).Title)

	rec = s.do(t, http.MethodDelete, "/time-blocks/"+blocks[1].ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/time-blocks/"+blocks[1].ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/time-blocks", CreateTimeBlockRequest{
		PractitionerID: s.practitioner,
		Title:          "Broken",
		StartDate:      "2025-03-04",
		StartTime:      "9h",
		EndTime:        "10:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_time", decode[ErrorResponse](t, rec).Error)
}

func TestSeriesEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/series", CreateSeriesRequest{
		PractitionerID: s.practitioner,
		ClientID:       s.client.ID,
		TotalSessions:  10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	series := decode[SeriesResponse](t, rec)
	assert.Equal(t, 10, series.TotalSessions)
	assert.Equal(t, "active", series.Status)

	rec = s.do(t, http.MethodGet, "/series/"+series.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, series.ID, decode[SeriesResponse](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/series", CreateSeriesRequest{
		PractitionerID: s.practitioner,
		ClientID:       s.client.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_series_length", decode[ErrorResponse](t, rec).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/health/live", nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `calendar_http_requests_total{code="200",method="GET",route="/health/live"} 1`), body)
}

func TestCalendarSettings(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/calendar/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CalendarSettingsResponse{
		Timezone:        "UTC",
		StartHour:       7,
		EndHour:         22,
		SlotMinutes:     15,
		BookingStart:    "07:00",
		BookingEnd:      "21:00",
		DragThresholdPx: 5,
	}, decode[CalendarSettingsResponse](t, rec))
}
