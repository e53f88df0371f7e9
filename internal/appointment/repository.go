package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClientNotFound      = errors.New("client not found")
	ErrSessionTypeNotFound = errors.New("session type not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSeriesNotFound      = errors.New("series not found")
	ErrTimeBlockNotFound   = errors.New("time block not found")
	// ErrSlotConflict is returned when the database refuses a write because
	// it would double-book the practitioner.
	ErrSlotConflict = errors.New("time overlaps another appointment")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)
	GetSessionTypeByID(ctx context.Context, id uuid.UUID) (*SessionType, error)

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Appointment, error)
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*Appointment, error)

	// Series
	GetSeriesByID(ctx context.Context, id uuid.UUID) (*Series, error)
	CreateSeries(ctx context.Context, s Series) (*Series, error)
	UpdateSeries(ctx context.Context, id uuid.UUID, upd SeriesUpdate) (*Series, error)

	// Time blocks
	GetTimeBlockByID(ctx context.Context, id uuid.UUID) (*TimeBlock, error)
	ListTimeBlocksInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]TimeBlock, error)
	CreateTimeBlocks(ctx context.Context, blocks []TimeBlock) ([]TimeBlock, error)
	UpdateTimeBlock(ctx context.Context, b TimeBlock) (*TimeBlock, error)
	DeleteTimeBlock(ctx context.Context, id uuid.UUID) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
