package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type SeriesStatus string

const (
	SeriesActive    SeriesStatus = "active"
	SeriesCompleted SeriesStatus = "completed"
	SeriesPaused    SeriesStatus = "paused"
	SeriesCancelled SeriesStatus = "cancelled"
)

type Client struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	Name           string
	Email          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SessionType struct {
	ID              uuid.UUID
	PractitionerID  uuid.UUID
	Name            string
	DurationMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Appointment struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	ClientID       uuid.UUID
	SessionTypeID  uuid.UUID
	SeriesID       *uuid.UUID
	SessionNumber  *int
	StartsAt       time.Time
	EndsAt         time.Time
	Status         Status
	PaymentStatus  PaymentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InSeries reports whether the appointment is one session of a series.
func (a *Appointment) InSeries() bool {
	return a.SeriesID != nil && a.SessionNumber != nil
}

type Series struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	ClientID       uuid.UUID
	TotalSessions  int
	CurrentSession int
	Status         SeriesStatus
	StartedAt      time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SeriesUpdate is a partial write to a series row. Nil fields are left
// unchanged. CurrentSession overwrites the progress; AdvanceTo only ever
// raises it, so concurrent advances settle on the highest session.
// AdvanceTo wins when both are set.
type SeriesUpdate struct {
	CurrentSession *int
	AdvanceTo      *int
	Status         *SeriesStatus
	CompletedAt    *time.Time
}

func (u SeriesUpdate) Empty() bool {
	return u.CurrentSession == nil && u.AdvanceTo == nil && u.Status == nil && u.CompletedAt == nil
}

type TimeBlock struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	Title          string
	StartsAt       time.Time
	EndsAt         time.Time
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// DayIntervals is everything occupying a practitioner's calendar on one day.
type DayIntervals struct {
	Date         time.Time
	Appointments []Appointment
	TimeBlocks   []TimeBlock
}
