package calendar

import (
	"errors"
	"time"
)

var (
	ErrSlotBlocked      = errors.New("selected time overlaps an existing booking or block")
	ErrUnknownSlot      = errors.New("selected time is not a bookable slot")
	ErrRangesStale      = errors.New("availability for the selected date has not been loaded")
	ErrMoveDiscarded    = errors.New("reschedule was cancelled")
	ErrMoveInFlight     = errors.New("reschedule is already being saved")
	ErrMoveNotSubmitted = errors.New("reschedule has not been submitted")
)

// Picker holds the state of a reschedule form: a target date, the slot
// list, the freshly fetched blocked ranges for that date and the selected
// start time. Changing the date drops both ranges and selection until the
// caller supplies ranges for the new date.
type Picker struct {
	slots    []int
	duration int

	date     time.Time
	ranges   []Range
	loaded   bool
	selected int
	hasSel   bool
}

func NewPicker(slots []int, durationMinutes int) *Picker {
	return &Picker{slots: slots, duration: durationMinutes}
}

func (p *Picker) Date() time.Time { return p.date }

// SetDate switches the target date. The caller must fetch blocked ranges for
// the new date and pass them to SetRanges before anything can be selected.
func (p *Picker) SetDate(date time.Time) {
	p.date = StartOfDay(date)
	p.ranges = nil
	p.loaded = false
	p.hasSel = false
}

// SetRanges installs a fresh snapshot of blocked ranges fetched for date.
// A snapshot for any other date is a late response to an earlier SetDate
// and is ignored. A selection that is now blocked is cleared; the return
// value reports whether that happened.
func (p *Picker) SetRanges(date time.Time, ranges []Range) bool {
	if !p.isCurrent(date) {
		return false
	}
	p.ranges = ranges
	p.loaded = true
	if p.hasSel && IsBlocked(p.selected, p.duration, ranges) {
		p.hasSel = false
		return true
	}
	return false
}

func (p *Picker) isCurrent(date time.Time) bool {
	if p.date.IsZero() {
		return false
	}
	return StartOfDay(date.In(p.date.Location())).Equal(p.date)
}

func (p *Picker) Options() []SlotOption {
	opts := SlotOptions(p.slots, p.duration, p.ranges)
	if !p.loaded {
		for i := range opts {
			opts[i].Disabled = true
		}
	}
	return opts
}

func (p *Picker) Select(minute int) error {
	if !p.loaded {
		return ErrRangesStale
	}
	if !p.isSlot(minute) {
		return ErrUnknownSlot
	}
	if IsBlocked(minute, p.duration, p.ranges) {
		return ErrSlotBlocked
	}
	p.selected = minute
	p.hasSel = true
	return nil
}

func (p *Picker) Selected() (int, bool) {
	return p.selected, p.hasSel
}

// Interval returns the selected start and end instants on the target date.
func (p *Picker) Interval() (time.Time, time.Time, bool) {
	if !p.hasSel {
		return time.Time{}, time.Time{}, false
	}
	return At(p.date, p.selected), At(p.date, p.selected+p.duration), true
}

func (p *Picker) isSlot(minute int) bool {
	for _, s := range p.slots {
		if s == minute {
			return true
		}
	}
	return false
}

type moveState int

const (
	movePending moveState = iota
	moveSubmitted
	moveDone
	moveDiscarded
)

// PendingMove is the confirmation step between a MoveIntent and the write
// that commits it.
type PendingMove struct {
	intent MoveIntent
	state  moveState
}

func NewPendingMove(intent MoveIntent) *PendingMove {
	return &PendingMove{intent: intent}
}

func (m *PendingMove) Intent() MoveIntent { return m.intent }

// Confirm hands out the intent for writing. It can only be called once per
// attempt; Rejected re-arms it after a failed write.
func (m *PendingMove) Confirm() (MoveIntent, error) {
	switch m.state {
	case moveDiscarded:
		return MoveIntent{}, ErrMoveDiscarded
	case moveSubmitted, moveDone:
		return MoveIntent{}, ErrMoveInFlight
	}
	m.state = moveSubmitted
	return m.intent, nil
}

// Cancel discards the intent. The original appointment is left untouched.
func (m *PendingMove) Cancel() {
	m.state = moveDiscarded
	m.intent = MoveIntent{}
}

// Rejected keeps the intent after the write was refused so the user can
// adjust and retry.
func (m *PendingMove) Rejected() error {
	if m.state != moveSubmitted {
		return ErrMoveNotSubmitted
	}
	m.state = movePending
	return nil
}

func (m *PendingMove) Committed() error {
	if m.state != moveSubmitted {
		return ErrMoveNotSubmitted
	}
	m.state = moveDone
	return nil
}

func (m *PendingMove) Discarded() bool { return m.state == moveDiscarded }
