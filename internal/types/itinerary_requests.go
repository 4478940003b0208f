package types

// CreateItemRequest is the JSON body for appending an activity to a day.
type CreateItemRequest struct {
	Name            string       `json:"name"`
	Category        ItemCategory `json:"category"`
	Amount          float64      `json:"amount"`
	Visits          int          `json:"visits"`
	TimeSlot        *TimeSlot    `json:"time_slot,omitempty"`
	Location        *GeoLocation `json:"location,omitempty"`
	BookingRequired bool         `json:"booking_required,omitempty"`
	BookingURL      string       `json:"booking_url,omitempty"`
	IsAISuggestion  bool         `json:"is_ai_suggestion,omitempty"`
}

// UpdateItemRequest carries optional fields for a partial item update.
// Location is replaced wholesale when present; there is no way to update
// a single coordinate.
type UpdateItemRequest struct {
	Name            *string       `json:"name,omitempty"`
	Category        *ItemCategory `json:"category,omitempty"`
	Amount          *float64      `json:"amount,omitempty"`
	Visits          *int          `json:"visits,omitempty"`
	TimeSlot        *TimeSlot     `json:"time_slot,omitempty"`
	Location        *GeoLocation  `json:"location,omitempty"`
	BookingRequired *bool         `json:"booking_required,omitempty"`
	BookingURL      *string       `json:"booking_url,omitempty"`
}

// SyncRequest selects the day pair and direction for a cross-day sync.
// DayNumber identifies the later day of the pair, matching the day
// reported by a disconnection.
type SyncRequest struct {
	DayNumber int    `json:"day_number"`
	Mode      string `json:"mode"`
}
