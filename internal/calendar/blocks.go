package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxBlockDays caps how many rows a single multi-day block may fan out to.
const MaxBlockDays = 366

var (
	ErrInvalidInterval  = errors.New("end time must be after start time")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrBlockTooLong     = errors.New("time block spans too many days")
	ErrEmptyTitle       = errors.New("title is required")
)

// BlockSpec is the dialog input for creating time off over one or more days.
// StartMinute and EndMinute are ignored when AllDay is set.
type BlockSpec struct {
	Title       string
	Notes       string
	StartDate   time.Time
	EndDate     time.Time
	AllDay      bool
	StartMinute int
	EndMinute   int
}

// BlockInterval is one concrete time block row produced from a BlockSpec.
type BlockInterval struct {
	Title    string
	Notes    string
	StartsAt time.Time
	EndsAt   time.Time
}

func (s BlockSpec) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if dateOnly(s.EndDate).Before(dateOnly(s.StartDate)) {
		return ErrInvalidDateRange
	}
	if !s.AllDay {
		if s.StartMinute < 0 || s.EndMinute > MinutesPerDay || s.EndMinute <= s.StartMinute {
			return ErrInvalidInterval
		}
	}
	return nil
}

// ExpandBlocks produces one BlockInterval per calendar day in
// [StartDate, EndDate], each with the same time of day. All-day blocks cover
// midnight to the following midnight.
func ExpandBlocks(spec BlockSpec, loc *time.Location) ([]BlockInterval, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	first := inLocation(spec.StartDate, loc)
	last := inLocation(spec.EndDate, loc)

	startMinute, endMinute := spec.StartMinute, spec.EndMinute
	if spec.AllDay {
		startMinute, endMinute = 0, MinutesPerDay
	}

	var out []BlockInterval
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if len(out) == MaxBlockDays {
			return nil, fmt.Errorf("%w: more than %d days", ErrBlockTooLong, MaxBlockDays)
		}
		out = append(out, BlockInterval{
			Title:    strings.TrimSpace(spec.Title),
			Notes:    spec.Notes,
			StartsAt: At(day, startMinute),
			EndsAt:   At(day, endMinute),
		})
	}
	return out, nil
}

// IsAllDay reports whether a block covers the whole rendered grid on day:
// it starts before the first visible hour and runs at least into the last
// visible hour. Such blocks render in the all-day lane.
func (g Grid) IsAllDay(day, startsAt, endsAt time.Time) bool {
	dayStart := StartOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	start := 0
	if startsAt.After(dayStart) {
		start = MinuteOfDay(startsAt.In(day.Location()))
	}
	end := MinutesPerDay
	if endsAt.Before(dayEnd) {
		end = MinuteOfDay(endsAt.In(day.Location()))
	}
	return start < g.FirstMinute() && end >= (g.EndHour-1)*60
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
