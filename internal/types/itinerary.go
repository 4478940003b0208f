package types

import (
	"time"

	"github.com/google/uuid"
)

// ItemCategory classifies an itinerary activity for cost aggregation.
type ItemCategory string

const (
	CategoryAccommodation ItemCategory = "accommodation"
	CategoryFood          ItemCategory = "food"
	CategoryTransport     ItemCategory = "transport"
	CategoryActivities    ItemCategory = "activities"
	CategoryShopping      ItemCategory = "shopping"
	CategoryOther         ItemCategory = "other"
)

// TimeSlot holds optional 24-hour "HH:MM" strings. Any subset may be set.
type TimeSlot struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// ItineraryItem is a single planned activity within a day.
//
// Auto-filled items are ordinary items distinguished only by IsAutoFilled
// and AutoFillSource, so they participate in normal editing, reordering and
// cost totals. AutoFillSource is a weak back-reference to the saved
// location that generated the item, never an ownership link: deleting the
// saved location must purge matching items explicitly.
type ItineraryItem struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Category        ItemCategory `json:"category"`
	Amount          float64      `json:"amount"`
	Visits          int          `json:"visits"`
	TimeSlot        *TimeSlot    `json:"time_slot,omitempty"`
	Location        *GeoLocation `json:"location,omitempty"`
	IsAutoFilled    bool         `json:"is_auto_filled,omitempty"`
	AutoFillSource  uuid.UUID    `json:"auto_fill_source,omitempty"`
	BookingRequired bool         `json:"booking_required,omitempty"`
	BookingURL      string       `json:"booking_url,omitempty"`
	IsAISuggestion  bool         `json:"is_ai_suggestion,omitempty"`
}

// RouteCache is a derived travel summary for one day's item sequence.
// It is never authoritative: it is dropped once older than the configured
// TTL or whenever the sequence it summarises changes.
type RouteCache struct {
	TotalDistanceMeters  float64   `json:"total_distance_meters"`
	TotalDurationMinutes float64   `json:"total_duration_minutes"`
	CalculatedAt         time.Time `json:"calculated_at"`
}

// DayItinerary is one day's ordered activity plan.
type DayItinerary struct {
	DayNumber  int             `json:"day_number"`
	Items      []ItineraryItem `json:"items"`
	RouteCache *RouteCache     `json:"route_cache,omitempty"`
}

// Disconnection reports a spatial gap between two adjacent days: the last
// location of the previous day does not match the first location of the
// day identified by DayNumber.
type Disconnection struct {
	DayNumber    int    `json:"day_number"`
	LastLocation string `json:"last_location"`
	NextLocation string `json:"next_location"`
}

// ItineraryStats aggregates counts across a whole itinerary, surfaced for
// analytics and the trip dashboard.
type ItineraryStats struct {
	TotalActivities        int     `json:"total_activities"`
	ActivitiesWithTime     int     `json:"activities_with_time"`
	ActivitiesWithLocation int     `json:"activities_with_location"`
	BookingRequired        int     `json:"booking_required"`
	AISuggestions          int     `json:"ai_suggestions"`
	DaysWithData           int     `json:"days_with_data"`
	AverageItemsPerDay     float64 `json:"average_items_per_day"`
}
