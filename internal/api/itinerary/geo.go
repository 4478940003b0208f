package itinerary

import (
	"math"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// sameLocationThresholdMeters absorbs GPS and geocoder jitter without
// treating genuinely distinct nearby addresses as equal.
const sameLocationThresholdMeters = 50.0

// HaversineDistance calculates the great-circle distance between two
// coordinates using the Haversine formula. Returns distance in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMeters = 6371000

	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// IsSameLocation reports whether two points represent the same place for
// day-connection purposes. A missing location on either side is a normal
// "no match", not an error. Equal non-empty place ids match immediately
// without computing any distance; otherwise the points match when they lie
// within sameLocationThresholdMeters of each other.
func IsSameLocation(a, b *types.GeoLocation) bool {
	if a == nil || b == nil {
		return false
	}
	if a.PlaceID != "" && b.PlaceID != "" && a.PlaceID == b.PlaceID {
		return true
	}
	d := HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	return d <= sameLocationThresholdMeters
}
