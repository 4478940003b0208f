package itinerary

import (
	"time"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// DefaultRouteCacheMaxAge is how long a computed route summary stays
// trustworthy before it must be recomputed.
const DefaultRouteCacheMaxAge = 7 * 24 * time.Hour

// CleanupRouteCache drops every route cache older than maxAge, measured
// from now. Days with a fresh cache or no cache at all pass through
// untouched. Returns a new slice; inputs are not mutated.
func CleanupRouteCache(days []types.DayItinerary, maxAge time.Duration, now time.Time) []types.DayItinerary {
	out := make([]types.DayItinerary, len(days))
	for i, day := range days {
		if day.RouteCache != nil && now.Sub(day.RouteCache.CalculatedAt) > maxAge {
			day.RouteCache = nil
		}
		out[i] = day
	}
	return out
}

// ComputeRouteSummary walks a day's located items in order and sums
// pairwise haversine distances, estimating duration at a 4.5 km/h walking
// pace. Items without a location do not contribute a leg.
func ComputeRouteSummary(day types.DayItinerary, now time.Time) *types.RouteCache {
	const walkingSpeedMetersPerMinute = 75.0

	var total float64
	var prev *types.GeoLocation
	for _, item := range day.Items {
		if item.Location == nil {
			continue
		}
		if prev != nil {
			total += HaversineDistance(prev.Latitude, prev.Longitude, item.Location.Latitude, item.Location.Longitude)
		}
		prev = item.Location
	}
	return &types.RouteCache{
		TotalDistanceMeters:  total,
		TotalDurationMinutes: total / walkingSpeedMetersPerMinute,
		CalculatedAt:         now,
	}
}
