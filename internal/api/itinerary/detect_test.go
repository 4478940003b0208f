package itinerary

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

func TestDetectDisconnectedDays_ReportsGap(t *testing.T) {
	madrid := types.GeoLocation{Latitude: 40.0, Longitude: -3.0, Address: "Madrid"}
	paris := types.GeoLocation{Latitude: 48.8, Longitude: 2.3, Address: "Paris"}

	days := []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{locatedItem("Dinner", madrid)}},
		{DayNumber: 2, Items: []types.ItineraryItem{locatedItem("Breakfast", paris)}},
	}

	reports := DetectDisconnectedDays(days)

	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].DayNumber)
	assert.Equal(t, "Madrid", reports[0].LastLocation)
	assert.Equal(t, "Paris", reports[0].NextLocation)
}

func TestDetectDisconnectedDays_NoReportWhenConnected(t *testing.T) {
	madrid := types.GeoLocation{Latitude: 40.0, Longitude: -3.0, Address: "Madrid"}

	days := []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{locatedItem("Dinner", madrid)}},
		{DayNumber: 2, Items: []types.ItineraryItem{locatedItem("Breakfast", madrid)}},
	}

	assert.Empty(t, DetectDisconnectedDays(days))
}

func TestDetectDisconnectedDays_SkipsEmptyAndUnlocatedDays(t *testing.T) {
	madrid := types.GeoLocation{Latitude: 40.0, Longitude: -3.0, Address: "Madrid"}
	paris := types.GeoLocation{Latitude: 48.8, Longitude: 2.3, Address: "Paris"}

	days := []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{locatedItem("Dinner", madrid)}},
		{DayNumber: 2}, // rest day: nothing to compare on either side of it
		{DayNumber: 3, Items: []types.ItineraryItem{locatedItem("Breakfast", paris)}},
		{DayNumber: 4, Items: []types.ItineraryItem{
			{ID: uuid.New(), Name: "Museum", Category: types.CategoryActivities, Visits: 1},
		}},
	}

	assert.Empty(t, DetectDisconnectedDays(days))
}

func TestDetectDisconnectedDays_MultipleGapsInDayOrder(t *testing.T) {
	a := types.GeoLocation{Latitude: 40.0, Longitude: -3.0, Address: "Madrid"}
	b := types.GeoLocation{Latitude: 48.8, Longitude: 2.3, Address: "Paris"}
	c := types.GeoLocation{Latitude: 52.5, Longitude: 13.4, Address: "Berlin"}

	days := []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{locatedItem("Dinner", a)}},
		{DayNumber: 2, Items: []types.ItineraryItem{locatedItem("Breakfast", b), locatedItem("Dinner", b)}},
		{DayNumber: 3, Items: []types.ItineraryItem{locatedItem("Breakfast", c)}},
	}

	reports := DetectDisconnectedDays(days)
	require.Len(t, reports, 2)
	assert.Equal(t, 2, reports[0].DayNumber)
	assert.Equal(t, 3, reports[1].DayNumber)
}

func TestCleanupRouteCache_DropsOnlyStaleCaches(t *testing.T) {
	now := time.Now()
	stale := &types.RouteCache{TotalDistanceMeters: 1200, CalculatedAt: now.Add(-8 * 24 * time.Hour)}
	fresh := &types.RouteCache{TotalDistanceMeters: 900, CalculatedAt: now.Add(-6 * 24 * time.Hour)}

	days := []types.DayItinerary{
		{DayNumber: 1, RouteCache: stale},
		{DayNumber: 2, RouteCache: fresh},
		{DayNumber: 3},
	}

	out := CleanupRouteCache(days, DefaultRouteCacheMaxAge, now)

	assert.Nil(t, out[0].RouteCache)
	require.NotNil(t, out[1].RouteCache)
	assert.Equal(t, 900.0, out[1].RouteCache.TotalDistanceMeters)
	assert.Nil(t, out[2].RouteCache)
	assert.NotNil(t, days[0].RouteCache, "input slice not mutated")
}

func TestComputeRouteSummary_SumsLocatedLegs(t *testing.T) {
	a := types.GeoLocation{Latitude: 0, Longitude: 0, Address: "A"}
	b := types.GeoLocation{Latitude: 0.01, Longitude: 0, Address: "B"}

	day := types.DayItinerary{DayNumber: 1, Items: []types.ItineraryItem{
		locatedItem("First", a),
		{ID: uuid.New(), Name: "No location", Category: types.CategoryFood, Visits: 1},
		locatedItem("Second", b),
	}}

	now := time.Now()
	summary := ComputeRouteSummary(day, now)

	require.NotNil(t, summary)
	assert.InDelta(t, 1112, summary.TotalDistanceMeters, 5)
	assert.Greater(t, summary.TotalDurationMinutes, 0.0)
	assert.Equal(t, now, summary.CalculatedAt)
}

func TestStats_CountsAcrossDays(t *testing.T) {
	loc := types.GeoLocation{Latitude: 40.0, Longitude: -3.0, Address: "Madrid"}
	timed := func(name string) types.ItineraryItem {
		return types.ItineraryItem{
			ID: uuid.New(), Name: name, Category: types.CategoryActivities, Visits: 1,
			TimeSlot: &types.TimeSlot{StartTime: "10:00"},
		}
	}

	days := []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{timed("a"), timed("b"), locatedItem("c", loc)}},
		{DayNumber: 2, Items: []types.ItineraryItem{timed("d"), timed("e"), locatedItem("f", loc)}},
	}

	s := Stats(days)

	assert.Equal(t, 6, s.TotalActivities)
	assert.Equal(t, 4, s.ActivitiesWithTime)
	assert.Equal(t, 2, s.ActivitiesWithLocation)
	assert.Equal(t, 2, s.DaysWithData)
	assert.Equal(t, 3.0, s.AverageItemsPerDay)
}

func TestStats_EmptyItinerary(t *testing.T) {
	s := Stats(nil)
	assert.Zero(t, s.TotalActivities)
	assert.Zero(t, s.AverageItemsPerDay)
}
