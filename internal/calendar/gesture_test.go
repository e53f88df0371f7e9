package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// weekController renders three 100px-wide columns (Mar 4-6) where one
// vertical pixel is one minute of the 07:00-22:00 grid.
func weekController(t *testing.T, busy []Busy) *Controller {
	t.Helper()
	cols := make([]Column, 3)
	for i := range cols {
		cols[i] = Column{
			Date: time.Date(2026, 3, 4+i, 0, 0, 0, 0, time.UTC),
			Rect: Rect{Left: float64(i * 100), Top: 0, Width: 100, Height: 900},
		}
	}
	return NewController(testGrid(t), cols, busy)
}

// y returns the pixel row for a minute-of-day in weekController's layout.
func y(minute int) float64 { return float64(minute - 7*60) }

func draggableAt(id uuid.UUID) *Draggable {
	return &Draggable{
		ID:        id,
		StartsAt:  time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		EndsAt:    time.Date(2026, 3, 5, 11, 30, 0, 0, time.UTC),
		Column:    1,
		Draggable: true,
	}
}

func TestClickWithoutMovementIsNotADrag(t *testing.T) {
	c := weekController(t, nil)
	id := uuid.New()

	g, eff := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(id)})
	require.Equal(t, PhaseArmed, g.Phase)
	require.Equal(t, Effect{}, eff)

	g, eff = c.Reduce(g, PointerUp{PointerID: 1, X: 150, Y: y(hm(10, 30))})
	require.Equal(t, PhaseIdle, g.Phase)
	require.Nil(t, eff.Intent)
	require.False(t, eff.Click)

	_, eff = c.Reduce(g, Click{})
	require.True(t, eff.Click, "a click without a drag reaches the click handler")
}

func TestSmallMovementStaysArmed(t *testing.T) {
	c := weekController(t, nil)
	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(uuid.New())})

	g, eff := c.Reduce(g, PointerMove{PointerID: 1, X: 152, Y: y(hm(10, 30)) + 3})
	require.Equal(t, PhaseArmed, g.Phase)
	require.False(t, eff.CapturePointer)

	_, ok := c.ComputeGhost(g)
	require.False(t, ok)
}

func TestDragAcrossDaysEmitsIntentAndSuppressesClick(t *testing.T) {
	c := weekController(t, nil)
	id := uuid.New()

	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(id)})
	require.InDelta(t, 30, g.GrabOffset, 1e-6)

	g, eff := c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(hm(11, 30))})
	require.Equal(t, PhaseDragging, g.Phase)
	require.True(t, eff.CapturePointer)

	ghost, ok := c.ComputeGhost(g)
	require.True(t, ok)
	require.Equal(t, 1, ghost.Column)
	require.Equal(t, hm(11, 0), ghost.Start)
	require.Equal(t, hm(12, 30), ghost.End)
	require.InDelta(t, 240.0/900*100, ghost.OffsetPercent, 1e-9)
	require.InDelta(t, 10, ghost.HeightPercent, 1e-9)
	require.False(t, ghost.Blocked)

	g, eff = c.Reduce(g, PointerUp{PointerID: 1, X: 250, Y: y(hm(11, 30))})
	require.Equal(t, PhaseIdle, g.Phase)
	require.True(t, eff.ReleasePointer)
	require.NotNil(t, eff.Intent)
	require.Equal(t, MoveIntent{
		AppointmentID: id,
		StartsAt:      time.Date(2026, 3, 6, 11, 0, 0, 0, time.UTC),
		EndsAt:        time.Date(2026, 3, 6, 12, 30, 0, 0, time.UTC),
	}, *eff.Intent)

	g, eff = c.Reduce(g, Click{})
	require.False(t, eff.Click, "synthetic click after a drag is swallowed")
	_, eff = c.Reduce(g, Click{})
	require.True(t, eff.Click)
}

func TestDragBackToOriginEmitsNothing(t *testing.T) {
	c := weekController(t, nil)
	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(uuid.New())})
	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(hm(13, 0))})
	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(hm(10, 32))})

	_, eff := c.Reduce(g, PointerUp{PointerID: 1, X: 150, Y: y(hm(10, 32))})
	require.True(t, eff.ReleasePointer)
	require.Nil(t, eff.Intent)
	require.False(t, eff.Blocked)
}

func TestDragBackToOriginOffGridEmitsNothing(t *testing.T) {
	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		grabAt   int
		moveTo   int
		wantMove int
	}{
		{
			name:     "start between slots",
			start:    time.Date(2026, 3, 5, 10, 10, 0, 0, time.UTC),
			end:      time.Date(2026, 3, 5, 11, 0, 0, 0, time.UTC),
			grabAt:   hm(10, 30),
			moveTo:   hm(11, 30),
			wantMove: hm(11, 15),
		},
		{
			name:     "start before the first visible hour",
			start:    time.Date(2026, 3, 5, 6, 30, 0, 0, time.UTC),
			end:      time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC),
			grabAt:   hm(7, 30),
			moveTo:   hm(9, 30),
			wantMove: hm(8, 30),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := weekController(t, nil)
			target := &Draggable{ID: uuid.New(), StartsAt: tc.start, EndsAt: tc.end, Column: 1, Draggable: true}

			for _, jitter := range []float64{6, 20, 60} {
				g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(tc.grabAt), Target: target})
				g, eff := c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(tc.grabAt) + jitter})
				require.True(t, eff.CapturePointer)

				_, eff = c.Reduce(g, PointerUp{PointerID: 1, X: 150, Y: y(tc.grabAt)})
				require.True(t, eff.ReleasePointer)
				require.Nil(t, eff.Intent, "released at the grab point after %vpx", jitter)
			}

			g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(tc.grabAt), Target: target})
			g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(tc.moveTo)})
			_, eff := c.Reduce(g, PointerUp{PointerID: 1, X: 150, Y: y(tc.moveTo)})
			require.NotNil(t, eff.Intent)
			require.Equal(t, At(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), tc.wantMove), eff.Intent.StartsAt)
		})
	}
}

func TestDragClampsToVisibleGrid(t *testing.T) {
	c := weekController(t, nil)
	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(uuid.New())})
	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: 5000})
	require.Equal(t, hm(20, 30), g.CandidateStart)

	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: -40, Y: -500})
	require.Equal(t, hm(7, 0), g.CandidateStart)
	require.Equal(t, 0, g.CandidateColumn)
}

func TestDropOnBusyTimeIsBlocked(t *testing.T) {
	block := Busy{
		ID:       uuid.New(),
		Kind:     BusyTimeBlock,
		StartsAt: time.Date(2026, 3, 6, 11, 30, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC),
	}
	c := weekController(t, []Busy{block})

	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(uuid.New())})
	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 250, Y: y(hm(11, 30))})

	ghost, ok := c.ComputeGhost(g)
	require.True(t, ok)
	require.True(t, ghost.Blocked)

	_, eff := c.Reduce(g, PointerUp{PointerID: 1, X: 250, Y: y(hm(11, 30))})
	require.True(t, eff.Blocked)
	require.Nil(t, eff.Intent)
}

func TestDraggedAppointmentDoesNotBlockItself(t *testing.T) {
	id := uuid.New()
	self := Busy{
		ID:       id,
		Kind:     BusyAppointment,
		StartsAt: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 3, 5, 11, 30, 0, 0, time.UTC),
		Active:   true,
	}
	c := weekController(t, []Busy{self})

	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(id)})
	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(hm(11, 0))})

	_, eff := c.Reduce(g, PointerUp{PointerID: 1, X: 150, Y: y(hm(11, 0))})
	require.False(t, eff.Blocked)
	require.NotNil(t, eff.Intent)
	require.Equal(t, time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC), eff.Intent.StartsAt)
}

func TestInertAppointmentsCannotBeGrabbed(t *testing.T) {
	c := weekController(t, nil)
	target := draggableAt(uuid.New())
	target.Draggable = false

	g, eff := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: target})
	require.Equal(t, PhaseIdle, g.Phase)
	require.Equal(t, Effect{}, eff)

	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(hm(15, 0))})
	require.Equal(t, PhaseIdle, g.Phase)

	_, eff = c.Reduce(g, Click{})
	require.True(t, eff.Click)
}

func TestSecondPointerIgnoredWhileDragging(t *testing.T) {
	c := weekController(t, nil)
	first := uuid.New()

	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 1, X: 150, Y: y(hm(10, 30)), Target: draggableAt(first)})
	g, _ = c.Reduce(g, PointerMove{PointerID: 1, X: 150, Y: y(hm(12, 30))})
	before := g

	g, eff := c.Reduce(g, PointerDown{PointerID: 2, X: 50, Y: y(hm(8, 0)), Target: draggableAt(uuid.New())})
	require.Equal(t, before, g)
	require.Equal(t, Effect{}, eff)

	g, _ = c.Reduce(g, PointerMove{PointerID: 2, X: 50, Y: y(hm(8, 0))})
	require.Equal(t, before, g)

	_, eff = c.Reduce(g, PointerUp{PointerID: 2, X: 50, Y: y(hm(8, 0))})
	require.Nil(t, eff.Intent)

	_, eff = c.Reduce(g, PointerUp{PointerID: 1, X: 150, Y: y(hm(12, 30))})
	require.NotNil(t, eff.Intent)
	require.Equal(t, first, eff.Intent.AppointmentID)
}

func TestDayViewUsesSingleColumn(t *testing.T) {
	c := NewController(testGrid(t), []Column{{
		Date: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Rect: Rect{Left: 300, Top: 50, Width: 400, Height: 450},
	}}, nil)
	target := draggableAt(uuid.New())
	target.Column = 0

	// 450px over 15h: 1px = 2 minutes; 10:30 is at 50+105.
	g, _ := c.Reduce(Gesture{}, PointerDown{PointerID: 7, X: 500, Y: 155, Target: target})
	g, _ = c.Reduce(g, PointerMove{PointerID: 7, X: 9000, Y: 185})
	require.Equal(t, 0, g.CandidateColumn)
	require.Equal(t, hm(11, 0), g.CandidateStart)
}
