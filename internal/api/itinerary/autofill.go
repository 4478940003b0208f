package itinerary

import (
	"github.com/google/uuid"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// Default bookend times for synthetic accommodation items.
const (
	defaultCheckOutTime = "09:00"
	defaultCheckInTime  = "18:00"
)

type boundary string

const (
	boundaryStart boundary = "start"
	boundaryEnd   boundary = "end"
)

// hasAccommodationAt reports whether the first (start) or last (end) item
// of the sequence is an accommodation entry. An empty sequence has no
// anchor at either end.
func hasAccommodationAt(items []types.ItineraryItem, pos boundary) bool {
	if len(items) == 0 {
		return false
	}
	switch pos {
	case boundaryStart:
		return items[0].Category == types.CategoryAccommodation
	case boundaryEnd:
		return items[len(items)-1].Category == types.CategoryAccommodation
	}
	return false
}

// createAccommodationItem builds a zero-cost, single-visit bookend tagged
// with the saved location that generated it. Only a start time is set: a
// check-in/check-out marker has no meaningful end.
func createAccommodationItem(name string, loc types.SavedLocation, startTime string) types.ItineraryItem {
	location := loc.Location
	return types.ItineraryItem{
		ID:             uuid.New(),
		Name:           name,
		Category:       types.CategoryAccommodation,
		Amount:         0,
		Visits:         1,
		TimeSlot:       &types.TimeSlot{StartTime: startTime},
		Location:       &location,
		IsAutoFilled:   true,
		AutoFillSource: loc.ID,
	}
}

// AutoFillDayAccommodation ensures a single day starts and ends at the
// traveller's lodging. The start and end checks are independent: a day can
// gain zero, one or two synthetic items. Returns a new day value.
func AutoFillDayAccommodation(day types.DayItinerary, primary types.SavedLocation) types.DayItinerary {
	items := make([]types.ItineraryItem, 0, len(day.Items)+2)

	if !hasAccommodationAt(day.Items, boundaryStart) {
		items = append(items, createAccommodationItem("Check-out", primary, defaultCheckOutTime))
	}
	items = append(items, day.Items...)
	if !hasAccommodationAt(day.Items, boundaryEnd) {
		items = append(items, createAccommodationItem("Check-in", primary, defaultCheckInTime))
	}

	out := day
	out.Items = items
	return out
}

// AutoFillAllDays applies AutoFillDayAccommodation to every day
// independently. There is no cross-day coupling at this step.
func AutoFillAllDays(days []types.DayItinerary, primary types.SavedLocation) []types.DayItinerary {
	out := make([]types.DayItinerary, len(days))
	for i, day := range days {
		out[i] = AutoFillDayAccommodation(day, primary)
	}
	return out
}

// RemoveAutoFilledItems strips every auto-filled item whose source is the
// given saved location, across all days. Manually added items and items
// generated from a different source are left untouched. Used when a saved
// location is deleted so no item is left with a dangling back-reference.
func RemoveAutoFilledItems(days []types.DayItinerary, locationID uuid.UUID) []types.DayItinerary {
	out := make([]types.DayItinerary, len(days))
	for i, day := range days {
		kept := make([]types.ItineraryItem, 0, len(day.Items))
		for _, item := range day.Items {
			if item.IsAutoFilled && item.AutoFillSource == locationID {
				continue
			}
			kept = append(kept, item)
		}
		d := day
		d.Items = kept
		out[i] = d
	}
	return out
}

// UpdateAutoFilledItems repoints every auto-filled item generated from
// oldLocationID at a replacement saved location, rewriting only the
// location and the back-reference. Used when the user edits or swaps their
// primary lodging without losing the synthetic bookends.
func UpdateAutoFilledItems(days []types.DayItinerary, oldLocationID uuid.UUID, newLocation types.SavedLocation) []types.DayItinerary {
	out := make([]types.DayItinerary, len(days))
	for i, day := range days {
		items := make([]types.ItineraryItem, len(day.Items))
		for j, item := range day.Items {
			if item.IsAutoFilled && item.AutoFillSource == oldLocationID {
				loc := newLocation.Location
				item.Location = &loc
				item.AutoFillSource = newLocation.ID
			}
			items[j] = item
		}
		d := day
		d.Items = items
		out[i] = d
	}
	return out
}
