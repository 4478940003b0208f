package itinerary

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

func testHotel() types.SavedLocation {
	return types.SavedLocation{
		ID:        uuid.New(),
		Name:      "Hotel Sol",
		Category:  types.LocationCategoryAccommodation,
		Location:  types.GeoLocation{Latitude: 40.4168, Longitude: -3.7038, Address: "Calle Mayor 1, Madrid"},
		IsPrimary: true,
	}
}

func manualItem(name string, cat types.ItemCategory) types.ItineraryItem {
	return types.ItineraryItem{ID: uuid.New(), Name: name, Category: cat, Amount: 25, Visits: 1}
}

func TestAutoFillDayAccommodation_EmptyDayGetsBothBookends(t *testing.T) {
	hotel := testHotel()
	day := types.DayItinerary{DayNumber: 1}

	out := AutoFillDayAccommodation(day, hotel)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "Check-out", out.Items[0].Name)
	assert.Equal(t, "09:00", out.Items[0].TimeSlot.StartTime)
	assert.Equal(t, "Check-in", out.Items[1].Name)
	assert.Equal(t, "18:00", out.Items[1].TimeSlot.StartTime)
	for _, item := range out.Items {
		assert.True(t, item.IsAutoFilled)
		assert.Equal(t, hotel.ID, item.AutoFillSource)
		assert.Equal(t, types.CategoryAccommodation, item.Category)
		assert.Zero(t, item.Amount)
		assert.Equal(t, 1, item.Visits)
		assert.Empty(t, item.TimeSlot.EndTime, "bookend markers are open-ended")
		require.NotNil(t, item.Location)
		assert.Equal(t, hotel.Location.Address, item.Location.Address)
	}
	assert.Empty(t, day.Items, "input day must not be mutated")
}

func TestAutoFillDayAccommodation_Idempotent(t *testing.T) {
	hotel := testHotel()
	day := types.DayItinerary{DayNumber: 1, Items: []types.ItineraryItem{manualItem("Museo del Prado", types.CategoryActivities)}}

	once := AutoFillDayAccommodation(day, hotel)
	twice := AutoFillDayAccommodation(once, hotel)

	assert.Equal(t, once.Items, twice.Items, "second pass must not insert duplicate bookends")
}

func TestAutoFillDayAccommodation_ManualAccommodationRespectedPerEnd(t *testing.T) {
	hotel := testHotel()
	day := types.DayItinerary{DayNumber: 2, Items: []types.ItineraryItem{
		manualItem("My Airbnb", types.CategoryAccommodation),
		manualItem("Tapas tour", types.CategoryFood),
	}}

	out := AutoFillDayAccommodation(day, hotel)

	// Start already anchored by the manual item; only the end is filled.
	require.Len(t, out.Items, 3)
	assert.Equal(t, "My Airbnb", out.Items[0].Name)
	assert.False(t, out.Items[0].IsAutoFilled)
	assert.Equal(t, "Check-in", out.Items[2].Name)
	assert.True(t, out.Items[2].IsAutoFilled)
}

func TestAutoFillAllDays_AppliesPerDayIndependently(t *testing.T) {
	hotel := testHotel()
	days := []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{manualItem("Flight", types.CategoryTransport)}},
		{DayNumber: 2},
	}

	out := AutoFillAllDays(days, hotel)

	require.Len(t, out, 2)
	assert.Len(t, out[0].Items, 3)
	assert.Len(t, out[1].Items, 2)
	assert.Len(t, days[0].Items, 1, "input days must not be mutated")
}

func TestRemoveAutoFilledItems_OnlyMatchingSource(t *testing.T) {
	hotel := testHotel()
	otherHotel := testHotel()

	days := AutoFillAllDays([]types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{manualItem("Lunch", types.CategoryFood)}},
		{DayNumber: 2},
	}, hotel)
	// Day 2 additionally carries a bookend from a different source.
	days[1].Items = append(days[1].Items, createAccommodationItem("Check-in", otherHotel, "18:00"))

	out := RemoveAutoFilledItems(days, hotel.ID)

	require.Len(t, out, 2)
	assert.Len(t, out[0].Items, 1)
	assert.Equal(t, "Lunch", out[0].Items[0].Name)
	require.Len(t, out[1].Items, 1)
	assert.Equal(t, otherHotel.ID, out[1].Items[0].AutoFillSource, "items from another source stay")
}

func TestUpdateAutoFilledItems_RewritesLocationAndSourceOnly(t *testing.T) {
	oldHotel := testHotel()
	newHotel := types.SavedLocation{
		ID:       uuid.New(),
		Name:     "Hostal Luna",
		Category: types.LocationCategoryAccommodation,
		Location: types.GeoLocation{Latitude: 40.42, Longitude: -3.70, Address: "Gran Via 12, Madrid"},
	}

	days := AutoFillAllDays([]types.DayItinerary{{DayNumber: 1}}, oldHotel)
	before := days[0].Items[0]

	out := UpdateAutoFilledItems(days, oldHotel.ID, newHotel)

	after := out[0].Items[0]
	assert.Equal(t, newHotel.ID, after.AutoFillSource)
	assert.Equal(t, newHotel.Location.Address, after.Location.Address)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.TimeSlot, after.TimeSlot)

	// Untouched source id in the original snapshot.
	assert.Equal(t, oldHotel.ID, days[0].Items[0].AutoFillSource)
}
