package calendar

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

var (
	ErrInvalidGrid  = errors.New("invalid calendar grid")
	ErrInvalidClock = errors.New("invalid clock time, expected HH:MM")
)

// Grid describes the visible hour range of a day column and the slot
// granularity every placement snaps to.
type Grid struct {
	StartHour   int // first visible hour, inclusive
	EndHour     int // last visible hour, exclusive
	SlotMinutes int
}

// Rect is the bounding rectangle of a rendered day column, in pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

func NewGrid(startHour, endHour, slotMinutes int) (Grid, error) {
	g := Grid{StartHour: startHour, EndHour: endHour, SlotMinutes: slotMinutes}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

func (g Grid) Validate() error {
	if g.StartHour < 0 || g.EndHour > 24 || g.StartHour >= g.EndHour {
		return fmt.Errorf("%w: hours %d-%d", ErrInvalidGrid, g.StartHour, g.EndHour)
	}
	if g.SlotMinutes <= 0 || 60%g.SlotMinutes != 0 {
		return fmt.Errorf("%w: slot of %d minutes does not divide an hour", ErrInvalidGrid, g.SlotMinutes)
	}
	return nil
}

func (g Grid) FirstMinute() int { return g.StartHour * 60 }

func (g Grid) LastMinute() int { return g.EndHour * 60 }

func (g Grid) SpanMinutes() int { return g.LastMinute() - g.FirstMinute() }

// Snap rounds a minute-of-day to the nearest slot boundary inside the
// visible range.
func (g Grid) Snap(minute int) int {
	return g.snap(float64(minute))
}

func (g Grid) snap(minute float64) int {
	slot := float64(g.SlotMinutes)
	snapped := int(math.Round(minute/slot)) * g.SlotMinutes
	return clamp(snapped, g.FirstMinute(), g.LastMinute())
}

// rawMinuteAt maps a vertical pointer position to an unsnapped minute-of-day,
// clamped to the visible range.
func (g Grid) rawMinuteAt(y float64, col Rect) float64 {
	if col.Height <= 0 {
		return float64(g.FirstMinute())
	}
	ratio := (y - col.Top) / col.Height
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return float64(g.FirstMinute()) + ratio*float64(g.SpanMinutes())
}

// MinuteAt maps a vertical pointer position within col to a snapped
// minute-of-day in [FirstMinute, LastMinute].
func (g Grid) MinuteAt(y float64, col Rect) int {
	return g.snap(g.rawMinuteAt(y, col))
}

// StartMinuteAt is MinuteAt for placing an interval of the given duration:
// the result is pulled back so the interval ends inside the visible range.
func (g Grid) StartMinuteAt(y float64, col Rect, durationMinutes int) int {
	return g.ClampStart(g.MinuteAt(y, col), durationMinutes)
}

// ClampStart keeps [start, start+duration) inside the visible range. A
// non-zero duration always reserves at least one slot, so the latest start
// is LastMinute - SlotMinutes for short intervals.
func (g Grid) ClampStart(start, durationMinutes int) int {
	latest := g.LastMinute()
	if durationMinutes > 0 {
		latest -= g.roundUpToSlot(durationMinutes)
	}
	if latest < g.FirstMinute() {
		return g.FirstMinute()
	}
	return clamp(start, g.FirstMinute(), latest)
}

func (g Grid) roundUpToSlot(minutes int) int {
	slots := (minutes + g.SlotMinutes - 1) / g.SlotMinutes
	return slots * g.SlotMinutes
}

// OffsetPercent is the vertical position of minute within the column, as a
// percentage of the column height.
func (g Grid) OffsetPercent(minute int) float64 {
	return float64(minute-g.FirstMinute()) / float64(g.SpanMinutes()) * 100
}

// HeightPercent is the rendered height of an interval, as a percentage of
// the column height.
func (g Grid) HeightPercent(durationMinutes int) float64 {
	return float64(durationMinutes) / float64(g.SpanMinutes()) * 100
}

// MinuteOfDay returns the minutes since local midnight of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// At returns the instant minute minutes after midnight of day, in day's
// location.
func At(day time.Time, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, minute, 0, 0, day.Location())
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// FormatMinute renders a minute-of-day as HH:MM.
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock parses HH:MM into a minute-of-day. 24:00 is accepted as the end
// of the day.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
