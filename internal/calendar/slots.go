package calendar

// BookingWindow is the part of the day offered as selectable start times.
type BookingWindow struct {
	StartMinute int
	EndMinute   int // exclusive
}

type SlotOption struct {
	Minute   int    `json:"minute"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Slots lists every start time in the window stepped by the grid's slot
// granularity. The list does not depend on any day's bookings.
func (g Grid) Slots(w BookingWindow) []int {
	if w.EndMinute <= w.StartMinute {
		return nil
	}
	out := make([]int, 0, (w.EndMinute-w.StartMinute)/g.SlotMinutes+1)
	for m := w.StartMinute; m < w.EndMinute; m += g.SlotMinutes {
		out = append(out, m)
	}
	return out
}

// SlotOptions marks each slot disabled when an interval of durationMinutes
// starting there would overlap a blocked range.
func SlotOptions(slots []int, durationMinutes int, ranges []Range) []SlotOption {
	out := make([]SlotOption, len(slots))
	for i, m := range slots {
		out[i] = SlotOption{
			Minute:   m,
			Label:    FormatMinute(m),
			Disabled: IsBlocked(m, durationMinutes, ranges),
		}
	}
	return out
}
