package appointment

import "time"

// transitions lists the practitioner-initiated, single-step status changes.
// Completed, cancelled and no-show are terminal.
var transitions = map[Status][]Status{
	StatusRequested: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCompleted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusCheckedIn,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Blocks reports whether an appointment in this status occupies calendar
// time.
func (s Status) Blocks() bool {
	return s == StatusRequested || s == StatusConfirmed || s == StatusCheckedIn
}

// Draggable reports whether the appointment may be moved in time.
func (s Status) Draggable() bool {
	return s.Blocks()
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s Status) []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// SeriesEffectFor computes what a status change of appt does to its series.
// The second return value is false when the series is left alone.
//
//   - completing the final session completes the series
//   - cancelling or no-showing a session frees its number again
//   - confirming a session beyond the current progress advances it
func SeriesEffectFor(appt *Appointment, series *Series, to Status, now time.Time) (SeriesUpdate, bool) {
	if !appt.InSeries() || series == nil {
		return SeriesUpdate{}, false
	}
	n := *appt.SessionNumber

	switch to {
	case StatusCompleted:
		if n != series.TotalSessions {
			return SeriesUpdate{}, false
		}
		status := SeriesCompleted
		completedAt := now
		return SeriesUpdate{Status: &status, CompletedAt: &completedAt}, true
	case StatusCancelled, StatusNoShow:
		current := RolledBackSession(n)
		return SeriesUpdate{CurrentSession: &current}, true
	case StatusConfirmed:
		if n <= series.CurrentSession {
			return SeriesUpdate{}, false
		}
		current := n
		return SeriesUpdate{AdvanceTo: &current}, true
	}
	return SeriesUpdate{}, false
}

// RolledBackSession is the series progress after session n is cancelled.
func RolledBackSession(n int) int {
	return max(0, n-1)
}
