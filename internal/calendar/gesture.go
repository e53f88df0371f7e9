package calendar

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultDragThreshold is how far, in pixels, a pointer must travel after
// pointer-down before the gesture counts as a drag instead of a click.
const DefaultDragThreshold = 5.0

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseArmed
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseArmed:
		return "armed"
	case PhaseDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Gesture is the state of one pointer gesture. Phase tags which fields are
// meaningful: Idle only uses SuppressClick; Armed and Dragging carry the
// grabbed appointment; Candidate* are only set while Dragging.
type Gesture struct {
	Phase     Phase
	PointerID int

	AppointmentID  uuid.UUID
	OriginX        float64
	OriginY        float64
	GrabOffset     float64 // minutes between the grab point and the appointment start
	OriginalStart  int
	OriginalEnd    int
	OriginalColumn int

	CandidateStart  int
	CandidateColumn int

	// SuppressClick swallows the synthetic click the browser fires right
	// after a drag ends.
	SuppressClick bool
}

func (g Gesture) duration() int { return g.OriginalEnd - g.OriginalStart }

// Draggable is the appointment under the pointer at pointer-down.
type Draggable struct {
	ID        uuid.UUID
	StartsAt  time.Time
	EndsAt    time.Time
	Column    int
	Draggable bool
}

type Event interface {
	pointer() int
}

type PointerDown struct {
	PointerID int
	X, Y      float64
	Target    *Draggable
}

type PointerMove struct {
	PointerID int
	X, Y      float64
}

type PointerUp struct {
	PointerID int
	X, Y      float64
}

// Click is the click event the browser dispatches after pointer-up.
type Click struct{}

func (e PointerDown) pointer() int { return e.PointerID }
func (e PointerMove) pointer() int { return e.PointerID }
func (e PointerUp) pointer() int   { return e.PointerID }
func (Click) pointer() int         { return -1 }

// MoveIntent is a proposed reschedule, emitted when a drag ends somewhere
// other than where it began. It preserves the original duration.
type MoveIntent struct {
	AppointmentID uuid.UUID
	StartsAt      time.Time
	EndsAt        time.Time
}

// Effect tells the caller what to do after an event was reduced.
type Effect struct {
	CapturePointer bool
	ReleasePointer bool
	Click          bool        // let the normal click handler run
	Intent         *MoveIntent // set when a drag ended with a net move
	Blocked        bool        // the drop target overlaps busy time; no intent
}

// Column is one rendered day column.
type Column struct {
	Date time.Time
	Rect Rect
}

// Ghost is the preview of a dragged appointment at its candidate position.
type Ghost struct {
	Column        int     `json:"column"`
	Start         int     `json:"start"`
	End           int     `json:"end"`
	OffsetPercent float64 `json:"offset_percent"`
	HeightPercent float64 `json:"height_percent"`
	Blocked       bool    `json:"blocked"`
}

// Controller reduces pointer events over a day or week view into gesture
// state transitions. It holds no gesture state itself; Busy is a read-only
// snapshot of what is booked in the visible columns.
type Controller struct {
	Grid      Grid
	Columns   []Column
	Threshold float64
	Busy      []Busy
}

func NewController(grid Grid, columns []Column, busy []Busy) *Controller {
	return &Controller{
		Grid:      grid,
		Columns:   columns,
		Threshold: DefaultDragThreshold,
		Busy:      busy,
	}
}

// Reduce applies ev to g and returns the next state together with the side
// effects the caller should perform. Every move recomputes the candidate
// from the event coordinates alone, so the latest event always wins.
func (c *Controller) Reduce(g Gesture, ev Event) (Gesture, Effect) {
	switch e := ev.(type) {
	case PointerDown:
		return c.onDown(g, e)
	case PointerMove:
		return c.onMove(g, e)
	case PointerUp:
		return c.onUp(g, e)
	case Click:
		return c.onClick(g)
	}
	return g, Effect{}
}

func (c *Controller) onDown(g Gesture, e PointerDown) (Gesture, Effect) {
	if g.Phase != PhaseIdle {
		return g, Effect{}
	}
	if e.Target == nil || !e.Target.Draggable || !e.Target.EndsAt.After(e.Target.StartsAt) {
		return Gesture{}, Effect{}
	}
	col := c.clampColumn(e.Target.Column)
	if col < 0 {
		return Gesture{}, Effect{}
	}

	loc := c.Columns[col].Date.Location()
	start := MinuteOfDay(e.Target.StartsAt.In(loc))
	end := start + int(e.Target.EndsAt.Sub(e.Target.StartsAt)/time.Minute)
	pointerMinute := c.Grid.rawMinuteAt(e.Y, c.Columns[col].Rect)

	return Gesture{
		Phase:          PhaseArmed,
		PointerID:      e.PointerID,
		AppointmentID:  e.Target.ID,
		OriginX:        e.X,
		OriginY:        e.Y,
		GrabOffset:     pointerMinute - float64(start),
		OriginalStart:  start,
		OriginalEnd:    end,
		OriginalColumn: col,
	}, Effect{}
}

func (c *Controller) onMove(g Gesture, e PointerMove) (Gesture, Effect) {
	if g.PointerID != e.PointerID {
		return g, Effect{}
	}
	switch g.Phase {
	case PhaseArmed:
		if math.Hypot(e.X-g.OriginX, e.Y-g.OriginY) < c.threshold() {
			return g, Effect{}
		}
		g.Phase = PhaseDragging
		g = c.place(g, e.X, e.Y)
		return g, Effect{CapturePointer: true}
	case PhaseDragging:
		return c.place(g, e.X, e.Y), Effect{}
	}
	return g, Effect{}
}

func (c *Controller) onUp(g Gesture, e PointerUp) (Gesture, Effect) {
	if g.PointerID != e.PointerID {
		return g, Effect{}
	}
	switch g.Phase {
	case PhaseArmed:
		// Never crossed the threshold: the click that follows belongs to
		// the normal click handler.
		return Gesture{}, Effect{}
	case PhaseDragging:
		g = c.place(g, e.X, e.Y)
		eff := Effect{ReleasePointer: true}
		next := Gesture{SuppressClick: true}

		if g.CandidateColumn == g.OriginalColumn && g.CandidateStart == c.home(g) {
			return next, eff
		}
		ghost, _ := c.ComputeGhost(g)
		if ghost.Blocked {
			eff.Blocked = true
			return next, eff
		}
		day := c.Columns[g.CandidateColumn].Date
		eff.Intent = &MoveIntent{
			AppointmentID: g.AppointmentID,
			StartsAt:      At(day, g.CandidateStart),
			EndsAt:        At(day, g.CandidateStart+g.duration()),
		}
		return next, eff
	}
	return g, Effect{}
}

func (c *Controller) onClick(g Gesture) (Gesture, Effect) {
	if g.Phase != PhaseIdle {
		return g, Effect{}
	}
	if g.SuppressClick {
		return Gesture{}, Effect{}
	}
	return g, Effect{Click: true}
}

// place recomputes the candidate position from pointer coordinates.
func (c *Controller) place(g Gesture, x, y float64) Gesture {
	col := c.columnAt(x)
	raw := c.Grid.rawMinuteAt(y, c.Columns[col].Rect) - g.GrabOffset
	g.CandidateStart = c.Grid.ClampStart(c.Grid.snap(raw), g.duration())
	g.CandidateColumn = col
	return g
}

// home is where place puts the appointment when the pointer is back at the
// grab point. It differs from OriginalStart when the appointment starts off
// the slot grid or outside the visible hours.
func (c *Controller) home(g Gesture) int {
	return c.Grid.ClampStart(c.Grid.Snap(g.OriginalStart), g.duration())
}

// ComputeGhost returns the preview interval for a dragging gesture.
func (c *Controller) ComputeGhost(g Gesture) (Ghost, bool) {
	if g.Phase != PhaseDragging {
		return Ghost{}, false
	}
	ranges := BlockedRanges(c.Columns[g.CandidateColumn].Date, c.Busy, g.AppointmentID)
	return Ghost{
		Column:        g.CandidateColumn,
		Start:         g.CandidateStart,
		End:           g.CandidateStart + g.duration(),
		OffsetPercent: c.Grid.OffsetPercent(g.CandidateStart),
		HeightPercent: c.Grid.HeightPercent(g.duration()),
		Blocked:       IsBlocked(g.CandidateStart, g.duration(), ranges),
	}, true
}

func (c *Controller) columnAt(x float64) int {
	if len(c.Columns) <= 1 {
		return 0
	}
	for i, col := range c.Columns {
		if x >= col.Rect.Left && x < col.Rect.Left+col.Rect.Width {
			return i
		}
	}
	if x < c.Columns[0].Rect.Left {
		return 0
	}
	return len(c.Columns) - 1
}

func (c *Controller) clampColumn(i int) int {
	if len(c.Columns) == 0 {
		return -1
	}
	return clamp(i, 0, len(c.Columns)-1)
}

func (c *Controller) threshold() float64 {
	if c.Threshold > 0 {
		return c.Threshold
	}
	return DefaultDragThreshold
}
