package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/practice-calendar/internal/calendar"
	"github.com/hackgods/practice-calendar/internal/config"
	"github.com/hackgods/practice-calendar/internal/metrics"
	redisclient "github.com/hackgods/practice-calendar/internal/redis"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentStatus      = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventSeriesUpdated          = "SERIES_UPDATED"
)

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	cal     config.Calendar
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cal config.Calendar, logger *zap.Logger, m *metrics.Metrics) *Service {
	if cal.Location == nil {
		cal.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		locker:  locker,
		cal:     cal,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

func (s *Service) Location() *time.Location { return s.cal.Location }

func (s *Service) Grid() calendar.Grid { return s.cal.Grid() }

func (s *Service) Calendar() config.Calendar { return s.cal }

// BookRequest is a new appointment. Status defaults to requested.
type BookRequest struct {
	PractitionerID uuid.UUID
	ClientID       uuid.UUID
	SessionTypeID  uuid.UUID
	SeriesID       *uuid.UUID
	SessionNumber  *int
	StartsAt       time.Time
	EndsAt         time.Time
	Status         Status
}

// StatusChange is the outcome of a status transition. Series is set when the
// transition also wrote the appointment's series.
type StatusChange struct {
	Appointment *Appointment
	Previous    Status
	Series      *Series
}

// DayIntervals loads every appointment and time block touching date for the
// practitioner. exclude drops one appointment, used while rescheduling it.
func (s *Service) DayIntervals(ctx context.Context, practitionerID uuid.UUID, date time.Time, exclude uuid.UUID) (*DayIntervals, error) {
	from := calendar.StartOfDay(date.In(s.cal.Location))
	to := from.AddDate(0, 0, 1)

	appts, err := s.repo.ListAppointmentsInRange(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	blocks, err := s.repo.ListTimeBlocksInRange(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list time blocks: %w", err)
	}

	day := &DayIntervals{Date: from, TimeBlocks: blocks}
	for _, a := range appts {
		if exclude != uuid.Nil && a.ID == exclude {
			continue
		}
		day.Appointments = append(day.Appointments, a)
	}
	return day, nil
}

// Busy converts the day's contents into overlap-checker input.
func (d *DayIntervals) Busy() []calendar.Busy {
	busy := make([]calendar.Busy, 0, len(d.Appointments)+len(d.TimeBlocks))
	for _, a := range d.Appointments {
		busy = append(busy, calendar.Busy{
			ID:       a.ID,
			Kind:     calendar.BusyAppointment,
			StartsAt: a.StartsAt,
			EndsAt:   a.EndsAt,
			Active:   a.Status.Blocks(),
		})
	}
	for _, b := range d.TimeBlocks {
		busy = append(busy, calendar.Busy{
			ID:       b.ID,
			Kind:     calendar.BusyTimeBlock,
			StartsAt: b.StartsAt,
			EndsAt:   b.EndsAt,
		})
	}
	return busy
}

// BlockedRanges fetches a fresh snapshot of busy minutes on date.
func (s *Service) BlockedRanges(ctx context.Context, practitionerID uuid.UUID, date time.Time, exclude uuid.UUID) ([]calendar.Range, error) {
	day, err := s.DayIntervals(ctx, practitionerID, date, exclude)
	if err != nil {
		return nil, err
	}
	return calendar.BlockedRanges(day.Date, day.Busy(), exclude), nil
}

// AvailableSlots lists the bookable start times on date, disabling those
// where an appointment of durationMinutes would overlap busy time.
func (s *Service) AvailableSlots(ctx context.Context, practitionerID uuid.UUID, date time.Time, durationMinutes int, exclude uuid.UUID) ([]calendar.SlotOption, error) {
	if durationMinutes <= 0 {
		return nil, calendar.ErrInvalidInterval
	}
	ranges, err := s.BlockedRanges(ctx, practitionerID, date, exclude)
	if err != nil {
		return nil, err
	}
	slots := s.cal.Grid().Slots(s.cal.Window())
	return calendar.SlotOptions(slots, durationMinutes, ranges), nil
}

// BookAppointment validates and stores a new appointment. The overlap check
// and the insert run under the practitioner's day lock.
func (s *Service) BookAppointment(ctx context.Context, req BookRequest) (*Appointment, error) {
	if err := s.validateInterval(req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = StatusRequested
	}
	if req.Status != StatusRequested && req.Status != StatusConfirmed {
		return nil, ErrInvalidBookingStatus
	}

	client, err := s.repo.GetClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client.PractitionerID != req.PractitionerID {
		return nil, ErrClientNotFound
	}

	if _, err := s.repo.GetSessionTypeByID(ctx, req.SessionTypeID); err != nil {
		if errors.Is(err, ErrSessionTypeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session type: %w", err)
	}

	var series *Series
	if req.SeriesID != nil || req.SessionNumber != nil {
		series, err = s.seriesForBooking(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	var created *Appointment
	err = s.withDayLock(ctx, req.PractitionerID, req.StartsAt, func(lockCtx context.Context) error {
		ranges, err := s.BlockedRanges(lockCtx, req.PractitionerID, req.StartsAt, uuid.Nil)
		if err != nil {
			return err
		}
		if s.overlaps(req.StartsAt, req.EndsAt, ranges) {
			return ErrSlotConflict
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			PractitionerID: req.PractitionerID,
			ClientID:       req.ClientID,
			SessionTypeID:  req.SessionTypeID,
			SeriesID:       req.SeriesID,
			SessionNumber:  req.SessionNumber,
			StartsAt:       req.StartsAt,
			EndsAt:         req.EndsAt,
			Status:         req.Status,
			PaymentStatus:  PaymentUnpaid,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"client_id": appt.ClientID.String(),
			"starts_at": appt.StartsAt,
			"ends_at":   appt.EndsAt,
			"status":    appt.Status,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			s.metrics.Conflict("book")
		}
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("practitioner_id", created.PractitionerID.String()),
		zap.Time("starts_at", created.StartsAt),
	)

	// series was read before the day lock and bookings on other days may
	// have advanced it since; AdvanceTo never moves progress backwards.
	if series != nil && *req.SessionNumber > series.CurrentSession {
		current := *req.SessionNumber
		if _, err := s.applySeriesUpdate(ctx, created, series, SeriesUpdate{AdvanceTo: &current}, "advance"); err != nil {
			return created, s.partialFailure("book", "appointment booked", created, err)
		}
	}

	return created, nil
}

func (s *Service) seriesForBooking(ctx context.Context, req BookRequest) (*Series, error) {
	if req.SeriesID == nil || req.SessionNumber == nil {
		return nil, ErrInvalidSessionNumber
	}
	series, err := s.repo.GetSeriesByID(ctx, *req.SeriesID)
	if err != nil {
		if errors.Is(err, ErrSeriesNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load series: %w", err)
	}
	if series.ClientID != req.ClientID {
		return nil, ErrSeriesClientMismatch
	}
	if series.Status != SeriesActive {
		return nil, ErrSeriesNotActive
	}
	if n := *req.SessionNumber; n < 1 || n > series.TotalSessions {
		return nil, ErrInvalidSessionNumber
	}
	return series, nil
}

// ChangeStatus applies a single-step status transition and its series side
// effect. The status write and the series write are separate: when the
// first fails nothing changed; when only the second fails the returned
// change is non-nil together with a *PartialFailureError.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to Status) (*StatusChange, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, appt.Status, to)
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.metrics.StatusTransition(string(appt.Status), string(to))
	s.logEvent(ctx, updated.ID, EventAppointmentStatus, map[string]any{
		"from": appt.Status,
		"to":   to,
	})

	change := &StatusChange{Appointment: updated, Previous: appt.Status}
	if !updated.InSeries() {
		return change, nil
	}

	action := fmt.Sprintf("appointment marked %s", to)

	series, err := s.repo.GetSeriesByID(ctx, *updated.SeriesID)
	if err != nil {
		return change, s.partialFailure("status", action, updated, fmt.Errorf("load series: %w", err))
	}

	upd, ok := SeriesEffectFor(updated, series, to, s.now())
	if !ok {
		return change, nil
	}

	kind := "advance"
	switch to {
	case StatusCompleted:
		kind = "complete"
	case StatusCancelled, StatusNoShow:
		kind = "rollback"
		if n := *updated.SessionNumber; n < series.CurrentSession {
			s.logger.Warn("rolling back series past later sessions",
				zap.String("series_id", series.ID.String()),
				zap.Int("session_number", n),
				zap.Int("current_session", series.CurrentSession),
			)
		}
	}

	newSeries, err := s.applySeriesUpdate(ctx, updated, series, upd, kind)
	if err != nil {
		return change, s.partialFailure("status", action, updated, err)
	}
	change.Series = newSeries
	return change, nil
}

func (s *Service) applySeriesUpdate(ctx context.Context, appt *Appointment, series *Series, upd SeriesUpdate, kind string) (*Series, error) {
	updated, err := s.repo.UpdateSeries(ctx, series.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("update series: %w", err)
	}

	s.metrics.SeriesUpdate(kind)
	s.logEvent(ctx, appt.ID, EventSeriesUpdated, map[string]any{
		"series_id":       series.ID.String(),
		"kind":            kind,
		"current_session": updated.CurrentSession,
		"status":          updated.Status,
	})
	return updated, nil
}

func (s *Service) partialFailure(operation, action string, appt *Appointment, err error) error {
	s.metrics.PartialFailure(operation)
	s.logger.Error("series update failed after primary write",
		zap.String("action", action),
		zap.String("appointment_id", appt.ID.String()),
		zap.Error(err),
	)
	return &PartialFailureError{Action: action, Err: err}
}

// Reschedule commits a confirmed move of a non-terminal appointment. The
// target day is re-checked against a fresh snapshot under its lock.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*Appointment, error) {
	if err := s.validateInterval(startsAt, endsAt); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !appt.Status.Draggable() {
		return nil, ErrNotReschedulable
	}

	var moved *Appointment
	err = s.withDayLock(ctx, appt.PractitionerID, startsAt, func(lockCtx context.Context) error {
		ranges, err := s.BlockedRanges(lockCtx, appt.PractitionerID, startsAt, appt.ID)
		if err != nil {
			return err
		}
		if s.overlaps(startsAt, endsAt, ranges) {
			return ErrSlotConflict
		}

		moved, err = s.repo.RescheduleAppointment(lockCtx, appt.ID, startsAt, endsAt)
		if err != nil {
			return fmt.Errorf("reschedule appointment: %w", err)
		}

		s.logEvent(lockCtx, appt.ID, EventAppointmentRescheduled, map[string]any{
			"from_starts_at": appt.StartsAt,
			"from_ends_at":   appt.EndsAt,
			"starts_at":      startsAt,
			"ends_at":        endsAt,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			s.metrics.Conflict("reschedule")
		}
		return nil, err
	}

	s.logger.Info("appointment rescheduled",
		zap.String("appointment_id", moved.ID.String()),
		zap.Time("from", appt.StartsAt),
		zap.Time("to", moved.StartsAt),
	)
	return moved, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// StartSeries enrolls a client in a new protocol of totalSessions sessions.
func (s *Service) StartSeries(ctx context.Context, practitionerID, clientID uuid.UUID, totalSessions int) (*Series, error) {
	if totalSessions < 1 {
		return nil, ErrInvalidSeriesLength
	}

	client, err := s.repo.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client.PractitionerID != practitionerID {
		return nil, ErrClientNotFound
	}

	series, err := s.repo.CreateSeries(ctx, Series{
		PractitionerID: practitionerID,
		ClientID:       clientID,
		TotalSessions:  totalSessions,
		Status:         SeriesActive,
		StartedAt:      s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}
	return series, nil
}

func (s *Service) GetSeries(ctx context.Context, id uuid.UUID) (*Series, error) {
	series, err := s.repo.GetSeriesByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return series, nil
}

func (s *Service) validateInterval(startsAt, endsAt time.Time) error {
	if !endsAt.After(startsAt) {
		return calendar.ErrInvalidInterval
	}
	// an appointment ending exactly at midnight still belongs to its day
	if !calendar.SameDay(startsAt, endsAt.Add(-time.Nanosecond), s.cal.Location) {
		return ErrSpansDays
	}
	return nil
}

func (s *Service) overlaps(startsAt, endsAt time.Time, ranges []calendar.Range) bool {
	start := calendar.MinuteOfDay(startsAt.In(s.cal.Location))
	duration := int(endsAt.Sub(startsAt).Round(time.Minute) / time.Minute)
	return calendar.IsBlocked(start, duration, ranges)
}

func (s *Service) withDayLock(ctx context.Context, practitionerID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	key := redisclient.DayLockKey(practitionerID, day.In(s.cal.Location))
	err := s.locker.WithLock(ctx, key, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrCalendarBusy
	}
	return err
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert event log",
			zap.String("event", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
