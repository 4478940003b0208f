package itinerary

import (
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// SyncMode selects the direction a boundary location is propagated in.
type SyncMode string

const (
	// SyncForward copies the last location of the previous day onto the
	// first item of the current day.
	SyncForward SyncMode = "forward"
	// SyncBackward copies the first location of the current day onto the
	// last item of the previous day.
	SyncBackward SyncMode = "backward"
)

// SyncConsecutiveDays resolves a detected gap between two adjacent days by
// copying one day's boundary location onto the other. Only the receiving
// item's location is rewritten; name, time, cost and every other field are
// preserved. If the source side has no located boundary item, or the
// receiving side has no item at all, the operation is a no-op on that
// side. Inputs are never mutated; both days are returned as new values.
func SyncConsecutiveDays(prev, curr types.DayItinerary, mode SyncMode) (types.DayItinerary, types.DayItinerary) {
	prevOut := cloneDay(prev)
	currOut := cloneDay(curr)

	switch mode {
	case SyncForward:
		if len(prev.Items) == 0 || len(curr.Items) == 0 {
			return prevOut, currOut
		}
		src := prev.Items[len(prev.Items)-1].Location
		if src == nil {
			return prevOut, currOut
		}
		loc := *src
		currOut.Items[0].Location = &loc
	case SyncBackward:
		if len(prev.Items) == 0 || len(curr.Items) == 0 {
			return prevOut, currOut
		}
		src := curr.Items[0].Location
		if src == nil {
			return prevOut, currOut
		}
		loc := *src
		prevOut.Items[len(prevOut.Items)-1].Location = &loc
	}
	return prevOut, currOut
}

func cloneDay(day types.DayItinerary) types.DayItinerary {
	out := day
	out.Items = make([]types.ItineraryItem, len(day.Items))
	copy(out.Items, day.Items)
	return out
}
