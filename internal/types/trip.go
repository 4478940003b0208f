package types

import (
	"time"

	"github.com/google/uuid"
)

// Trip owns the ordered day sequence and the saved locations for one
// journey. Days and SavedLocations are loaded on demand; list endpoints
// return trips without them.
type Trip struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Name           string          `json:"name"`
	Destination    string          `json:"destination"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Currency       string          `json:"currency"`
	Days           []DayItinerary  `json:"days,omitempty"`
	SavedLocations []SavedLocation `json:"saved_locations,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateTripRequest is the expected JSON body for creating a trip.
type CreateTripRequest struct {
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Currency    string    `json:"currency"`
}

// UpdateTripRequest carries optional fields for a partial update.
type UpdateTripRequest struct {
	Name        *string    `json:"name,omitempty"`
	Destination *string    `json:"destination,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
}
