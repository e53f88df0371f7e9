// Package appointmenttest provides in-memory stand-ins for the appointment
// repository and the calendar lock.
package appointmenttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/practice-calendar/internal/appointment"
	redisclient "github.com/hackgods/practice-calendar/internal/redis"
)

// Repository is a map-backed appointment.Repository. It rejects overlapping
// active appointments the same way the database constraint does.
type Repository struct {
	mu sync.Mutex

	clients      map[uuid.UUID]appointment.Client
	sessionTypes map[uuid.UUID]appointment.SessionType
	appointments map[uuid.UUID]appointment.Appointment
	series       map[uuid.UUID]appointment.Series
	timeBlocks   map[uuid.UUID]appointment.TimeBlock
	events       []appointment.EventLog

	// UpdateSeriesErr, when set, is returned by every UpdateSeries call.
	UpdateSeriesErr error
	// InsertEventErr, when set, is returned by every InsertEvent call.
	InsertEventErr error
}

var _ appointment.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		clients:      make(map[uuid.UUID]appointment.Client),
		sessionTypes: make(map[uuid.UUID]appointment.SessionType),
		appointments: make(map[uuid.UUID]appointment.Appointment),
		series:       make(map[uuid.UUID]appointment.Series),
		timeBlocks:   make(map[uuid.UUID]appointment.TimeBlock),
	}
}

// AddClient stores c, assigning an ID when it has none.
func (r *Repository) AddClient(c appointment.Client) appointment.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return c
}

func (r *Repository) AddSessionType(st appointment.SessionType) appointment.SessionType {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	r.sessionTypes[st.ID] = st
	return st
}

// AddAppointment stores a without the overlap check, for arranging fixtures.
func (r *Repository) AddAppointment(a appointment.Appointment) appointment.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.appointments[a.ID] = a
	return a
}

func (r *Repository) AddSeries(s appointment.Series) appointment.Series {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.series[s.ID] = s
	return s
}

func (r *Repository) AddTimeBlock(b appointment.TimeBlock) appointment.TimeBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.timeBlocks[b.ID] = b
	return b
}

// Events returns a copy of every logged event in insertion order.
func (r *Repository) Events() []appointment.EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]appointment.EventLog(nil), r.events...)
}

// EventTypes lists the logged event types in insertion order.
func (r *Repository) EventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.EventType
	}
	return types
}

func (r *Repository) GetClientByID(_ context.Context, id uuid.UUID) (*appointment.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, appointment.ErrClientNotFound
	}
	return &c, nil
}

func (r *Repository) GetSessionTypeByID(_ context.Context, id uuid.UUID) (*appointment.SessionType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessionTypes[id]
	if !ok {
		return nil, appointment.ErrSessionTypeNotFound
	}
	return &st, nil
}

func (r *Repository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *Repository) ListAppointmentsInRange(_ context.Context, practitionerID uuid.UUID, from, to time.Time) ([]appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appointment.Appointment
	for _, a := range r.appointments {
		if a.PractitionerID == practitionerID && a.StartsAt.Before(to) && a.EndsAt.After(from) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *Repository) CreateAppointment(_ context.Context, a appointment.Appointment) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictLocked(a) {
		return nil, appointment.ErrSlotConflict
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.appointments[a.ID] = a
	return &a, nil
}

func (r *Repository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to appointment.Status) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, appointment.ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

func (r *Repository) RescheduleAppointment(_ context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || !a.Status.Draggable() {
		return nil, appointment.ErrAppointmentNotFound
	}
	a.StartsAt = startsAt
	a.EndsAt = endsAt
	if r.conflictLocked(a) {
		return nil, appointment.ErrSlotConflict
	}
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

// conflictLocked mirrors the appointments exclusion constraint.
func (r *Repository) conflictLocked(a appointment.Appointment) bool {
	if !a.Status.Blocks() {
		return false
	}
	for _, other := range r.appointments {
		if other.ID == a.ID || other.PractitionerID != a.PractitionerID || !other.Status.Blocks() {
			continue
		}
		if a.StartsAt.Before(other.EndsAt) && a.EndsAt.After(other.StartsAt) {
			return true
		}
	}
	return false
}

func (r *Repository) GetSeriesByID(_ context.Context, id uuid.UUID) (*appointment.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok {
		return nil, appointment.ErrSeriesNotFound
	}
	return &s, nil
}

func (r *Repository) CreateSeries(_ context.Context, s appointment.Series) (*appointment.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.series[s.ID] = s
	return &s, nil
}

func (r *Repository) UpdateSeries(_ context.Context, id uuid.UUID, upd appointment.SeriesUpdate) (*appointment.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateSeriesErr != nil {
		return nil, r.UpdateSeriesErr
	}
	s, ok := r.series[id]
	if !ok {
		return nil, appointment.ErrSeriesNotFound
	}
	switch {
	case upd.AdvanceTo != nil:
		s.CurrentSession = max(s.CurrentSession, *upd.AdvanceTo)
	case upd.CurrentSession != nil:
		s.CurrentSession = *upd.CurrentSession
	}
	if upd.Status != nil {
		s.Status = *upd.Status
	}
	if upd.CompletedAt != nil {
		completedAt := *upd.CompletedAt
		s.CompletedAt = &completedAt
	}
	s.UpdatedAt = time.Now()
	r.series[id] = s
	return &s, nil
}

func (r *Repository) GetTimeBlockByID(_ context.Context, id uuid.UUID) (*appointment.TimeBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.timeBlocks[id]
	if !ok {
		return nil, appointment.ErrTimeBlockNotFound
	}
	return &b, nil
}

func (r *Repository) ListTimeBlocksInRange(_ context.Context, practitionerID uuid.UUID, from, to time.Time) ([]appointment.TimeBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []appointment.TimeBlock
	for _, b := range r.timeBlocks {
		if b.PractitionerID == practitionerID && b.StartsAt.Before(to) && b.EndsAt.After(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r *Repository) CreateTimeBlocks(_ context.Context, blocks []appointment.TimeBlock) ([]appointment.TimeBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := make([]appointment.TimeBlock, len(blocks))
	for i, b := range blocks {
		b.ID = uuid.New()
		b.CreatedAt = time.Now()
		b.UpdatedAt = b.CreatedAt
		r.timeBlocks[b.ID] = b
		created[i] = b
	}
	return created, nil
}

func (r *Repository) UpdateTimeBlock(_ context.Context, b appointment.TimeBlock) (*appointment.TimeBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.timeBlocks[b.ID]; !ok {
		return nil, appointment.ErrTimeBlockNotFound
	}
	b.UpdatedAt = time.Now()
	r.timeBlocks[b.ID] = b
	return &b, nil
}

func (r *Repository) DeleteTimeBlock(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.timeBlocks[id]; !ok {
		return appointment.ErrTimeBlockNotFound
	}
	delete(r.timeBlocks, id)
	return nil
}

func (r *Repository) InsertEvent(_ context.Context, ev appointment.EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.InsertEventErr != nil {
		return r.InsertEventErr
	}
	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Locker is an in-process redisclient.Locker. Held keys fail with
// redisclient.ErrLockNotAcquired, just like a taken Redis key.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
	keys []string
}

var _ redisclient.Locker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool)}
}

// Hold marks key as taken by someone else until the returned func is called.
func (l *Locker) Hold(key string) (release func()) {
	l.mu.Lock()
	l.held[key] = true
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}
}

// Keys lists every key WithLock was asked for, in order.
func (l *Locker) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	if l.held[key] {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}
