package itinerary

import (
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// DetectDisconnectedDays scans adjacent day pairs and reports the ones
// whose boundary locations both exist and do not match. Days with no items
// are silently skipped: there is nothing to compare and nothing for a sync
// to target. Reports follow day order. Read-only, no side effects; this is
// what drives the UI's gap-warning banner.
func DetectDisconnectedDays(days []types.DayItinerary) []types.Disconnection {
	var reports []types.Disconnection
	for i := 0; i+1 < len(days); i++ {
		prev, next := days[i], days[i+1]
		if len(prev.Items) == 0 || len(next.Items) == 0 {
			continue
		}
		last := prev.Items[len(prev.Items)-1].Location
		first := next.Items[0].Location
		if last == nil || first == nil {
			continue
		}
		if IsSameLocation(last, first) {
			continue
		}
		reports = append(reports, types.Disconnection{
			DayNumber:    next.DayNumber,
			LastLocation: last.Address,
			NextLocation: first.Address,
		})
	}
	return reports
}
