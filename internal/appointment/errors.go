package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus           = errors.New("unknown appointment status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrStatusChanged           = errors.New("appointment status was changed elsewhere, reload and retry")
	ErrInvalidBookingStatus    = errors.New("new appointments must be requested or confirmed")
	ErrNotReschedulable        = errors.New("only requested, confirmed or checked-in appointments can be moved")
	ErrSpansDays               = errors.New("appointment must start and end on the same day")
	ErrCalendarBusy            = errors.New("calendar is being updated, please retry")
	ErrInvalidSessionNumber    = errors.New("session number must be between 1 and the series length")
	ErrSeriesNotActive         = errors.New("series is not active")
	ErrSeriesClientMismatch    = errors.New("series belongs to a different client")
	ErrInvalidSeriesLength     = errors.New("series must have at least one session")
	ErrSeriesUpdateFailed      = errors.New("series update failed")
)

// PartialFailureError means the primary write went through but the
// dependent series write did not. Callers must not retry the primary
// action.
type PartialFailureError struct {
	Action string // what already succeeded, e.g. "appointment marked no_show"
	Err    error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s, but the series progress could not be updated: %v", e.Action, e.Err)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrSeriesUpdateFailed, e.Err}
}

// IsPartialFailure reports whether err is a PartialFailureError.
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}
