package itinerary

import (
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// Stats walks all days and tallies usage counts for the trip dashboard.
// Pure aggregation: nothing downstream branches on these numbers.
func Stats(days []types.DayItinerary) types.ItineraryStats {
	var s types.ItineraryStats
	for _, day := range days {
		if len(day.Items) > 0 {
			s.DaysWithData++
		}
		for _, item := range day.Items {
			s.TotalActivities++
			if item.TimeSlot != nil && item.TimeSlot.StartTime != "" {
				s.ActivitiesWithTime++
			}
			if item.Location != nil {
				s.ActivitiesWithLocation++
			}
			if item.BookingRequired {
				s.BookingRequired++
			}
			if item.IsAISuggestion {
				s.AISuggestions++
			}
		}
	}
	if len(days) > 0 {
		s.AverageItemsPerDay = float64(s.TotalActivities) / float64(len(days))
	}
	return s
}
