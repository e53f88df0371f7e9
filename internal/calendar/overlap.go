package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type BusyKind string

const (
	BusyAppointment BusyKind = "appointment"
	BusyTimeBlock   BusyKind = "time_block"
)

// Busy is anything that can occupy calendar time: an appointment or a
// manual time block. Active is only consulted for appointments; time blocks
// always block.
type Busy struct {
	ID       uuid.UUID
	Kind     BusyKind
	StartsAt time.Time
	EndsAt   time.Time
	Active   bool
}

// Range is a half-open [Start, End) interval in minutes of a single day.
type Range struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Kind  BusyKind  `json:"kind"`
	ID    uuid.UUID `json:"id"`
}

// Overlaps reports whether two half-open intervals share any minute.
// Touching endpoints do not overlap.
func Overlaps(a, b Range) bool {
	return a.Start < b.End && a.End > b.Start
}

// IsBlocked reports whether [start, start+duration) overlaps any range.
func IsBlocked(start, durationMinutes int, ranges []Range) bool {
	candidate := Range{Start: start, End: start + durationMinutes}
	for _, r := range ranges {
		if Overlaps(candidate, r) {
			return true
		}
	}
	return false
}

// BlockedRanges projects busy items onto day (midnight-to-midnight in day's
// location). Inactive appointments and the item with id exclude are skipped.
// Items crossing midnight are clipped to the day.
func BlockedRanges(day time.Time, busy []Busy, exclude uuid.UUID) []Range {
	dayStart := StartOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	ranges := make([]Range, 0, len(busy))
	for _, b := range busy {
		if exclude != uuid.Nil && b.ID == exclude {
			continue
		}
		if b.Kind == BusyAppointment && !b.Active {
			continue
		}
		if !b.StartsAt.Before(dayEnd) || !b.EndsAt.After(dayStart) {
			continue
		}

		start := 0
		if b.StartsAt.After(dayStart) {
			start = MinuteOfDay(b.StartsAt.In(day.Location()))
		}
		end := MinutesPerDay
		if b.EndsAt.Before(dayEnd) {
			end = MinuteOfDay(b.EndsAt.In(day.Location()))
		}
		if end <= start {
			continue
		}

		ranges = append(ranges, Range{Start: start, End: end, Kind: b.Kind, ID: b.ID})
	}

	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start == ranges[j].Start {
			return ranges[i].End < ranges[j].End
		}
		return ranges[i].Start < ranges[j].Start
	})
	return ranges
}
