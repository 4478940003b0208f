package types

import (
	"time"

	"github.com/google/uuid"
)

// LocationCategory classifies a saved point of interest.
type LocationCategory string

const (
	LocationCategoryAccommodation LocationCategory = "ACCOMMODATION"
	LocationCategoryRestaurant    LocationCategory = "RESTAURANT"
	LocationCategoryLandmark      LocationCategory = "LANDMARK"
	LocationCategoryTransportHub  LocationCategory = "TRANSPORT_HUB"
	LocationCategoryOther         LocationCategory = "OTHER"
)

// SavedLocation is a user-defined named point reusable across itinerary
// edits. At most one ACCOMMODATION per trip may be primary; the repository
// enforces this with a partial unique index.
type SavedLocation struct {
	ID        uuid.UUID        `json:"id"`
	TripID    uuid.UUID        `json:"trip_id"`
	Name      string           `json:"name"`
	Category  LocationCategory `json:"category"`
	Location  GeoLocation      `json:"location"`
	IsPrimary bool             `json:"is_primary"`
	Icon      string           `json:"icon,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// CreateSavedLocationRequest is the expected JSON body for creating a saved location.
type CreateSavedLocationRequest struct {
	Name      string           `json:"name"`
	Category  LocationCategory `json:"category"`
	Location  GeoLocation      `json:"location"`
	IsPrimary bool             `json:"is_primary"`
	Icon      string           `json:"icon,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// UpdateSavedLocationRequest carries optional fields for a partial update.
type UpdateSavedLocationRequest struct {
	Name      *string           `json:"name,omitempty"`
	Category  *LocationCategory `json:"category,omitempty"`
	Location  *GeoLocation      `json:"location,omitempty"`
	IsPrimary *bool             `json:"is_primary,omitempty"`
	Icon      *string           `json:"icon,omitempty"`
	Notes     *string           `json:"notes,omitempty"`
}
