package types

import (
	"time"

	"github.com/google/uuid"
)

// TravelStyle scales the baseline daily costs of a city.
type TravelStyle string

const (
	TravelStyleBudget TravelStyle = "budget"
	TravelStyleMid    TravelStyle = "mid"
	TravelStyleLuxury TravelStyle = "luxury"
)

// CityCost is one row of the admin-maintained city cost table: baseline
// daily prices for a mid-range traveller, in the city's local currency.
type CityCost struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Country           string    `json:"country"`
	Currency          string    `json:"currency"`
	AccommodationCost float64   `json:"accommodation_cost"`
	FoodCost          float64   `json:"food_cost"`
	TransportCost     float64   `json:"transport_cost"`
	ActivitiesCost    float64   `json:"activities_cost"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpsertCityCostRequest is the admin CMS body for creating or updating a city.
type UpsertCityCostRequest struct {
	Name              string  `json:"name"`
	Country           string  `json:"country"`
	Currency          string  `json:"currency"`
	AccommodationCost float64 `json:"accommodation_cost"`
	FoodCost          float64 `json:"food_cost"`
	TransportCost     float64 `json:"transport_cost"`
	ActivitiesCost    float64 `json:"activities_cost"`
}

// DailyBudget is the calculator output for one city and travel style.
type DailyBudget struct {
	CityID        uuid.UUID   `json:"city_id"`
	CityName      string      `json:"city_name"`
	Style         TravelStyle `json:"style"`
	Accommodation float64     `json:"accommodation"`
	Food          float64     `json:"food"`
	Transport     float64     `json:"transport"`
	Activities    float64     `json:"activities"`
	Total         float64     `json:"total"`
}
