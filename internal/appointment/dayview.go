package appointment

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/practice-calendar/internal/calendar"
)

// PlacedItem is an appointment or time block positioned on the timed grid.
// Start and End are clipped to the visible hours.
type PlacedItem struct {
	Kind          calendar.BusyKind
	Appointment   *Appointment
	TimeBlock     *TimeBlock
	Start         int
	End           int
	OffsetPercent float64
	HeightPercent float64
	Draggable     bool
}

// DayView is one rendered day column: all-day blocks in their own lane and
// everything else placed on the grid.
type DayView struct {
	Date   time.Time
	AllDay []TimeBlock
	Timed  []PlacedItem
	Ranges []calendar.Range
}

// DayView lays out date for the practitioner. A non-nil exclude keeps that
// appointment on the grid but leaves it out of the blocked ranges, which is
// what a reschedule picker needs.
func (s *Service) DayView(ctx context.Context, practitionerID uuid.UUID, date time.Time, exclude uuid.UUID) (*DayView, error) {
	day, err := s.DayIntervals(ctx, practitionerID, date, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return BuildDayView(s.cal.Grid(), day, exclude), nil
}

// BuildDayView lays out a day's contents on grid.
func BuildDayView(grid calendar.Grid, day *DayIntervals, exclude uuid.UUID) *DayView {
	view := &DayView{
		Date:   day.Date,
		Ranges: calendar.BlockedRanges(day.Date, day.Busy(), exclude),
	}

	for i := range day.TimeBlocks {
		b := &day.TimeBlocks[i]
		if grid.IsAllDay(day.Date, b.StartsAt, b.EndsAt) {
			view.AllDay = append(view.AllDay, *b)
			continue
		}
		if item, ok := place(grid, day.Date, b.StartsAt, b.EndsAt); ok {
			item.Kind = calendar.BusyTimeBlock
			item.TimeBlock = b
			view.Timed = append(view.Timed, item)
		}
	}

	for i := range day.Appointments {
		a := &day.Appointments[i]
		if item, ok := place(grid, day.Date, a.StartsAt, a.EndsAt); ok {
			item.Kind = calendar.BusyAppointment
			item.Appointment = a
			item.Draggable = a.Status.Draggable()
			view.Timed = append(view.Timed, item)
		}
	}

	sort.SliceStable(view.Timed, func(i, j int) bool {
		return view.Timed[i].Start < view.Timed[j].Start
	})
	return view
}

func place(grid calendar.Grid, day, startsAt, endsAt time.Time) (PlacedItem, bool) {
	dayStart := calendar.StartOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	start := 0
	if startsAt.After(dayStart) {
		start = calendar.MinuteOfDay(startsAt.In(day.Location()))
	}
	end := calendar.MinutesPerDay
	if endsAt.Before(dayEnd) {
		end = calendar.MinuteOfDay(endsAt.In(day.Location()))
	}

	start = max(start, grid.FirstMinute())
	end = min(end, grid.LastMinute())
	if end <= start {
		return PlacedItem{}, false
	}

	return PlacedItem{
		Start:         start,
		End:           end,
		OffsetPercent: grid.OffsetPercent(start),
		HeightPercent: grid.HeightPercent(end - start),
	}, true
}

// GestureController builds a drag controller over columns with a fresh busy
// snapshot for every visible day, using the configured grid and threshold.
func (s *Service) GestureController(ctx context.Context, practitionerID uuid.UUID, columns []calendar.Column) (*calendar.Controller, error) {
	var busy []calendar.Busy
	for _, col := range columns {
		day, err := s.DayIntervals(ctx, practitionerID, col.Date, uuid.Nil)
		if err != nil {
			return nil, err
		}
		busy = append(busy, day.Busy()...)
	}

	c := calendar.NewController(s.cal.Grid(), columns, busy)
	c.Threshold = s.cal.DragThreshold
	return c, nil
}
