package city

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

func cityRow(c types.CityCost) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "country", "currency",
		"accommodation_cost", "food_cost", "transport_cost", "activities_cost",
		"created_at", "updated_at",
	}).AddRow(
		c.ID, c.Name, c.Country, c.Currency,
		c.AccommodationCost, c.FoodCost, c.TransportCost, c.ActivitiesCost,
		c.CreatedAt, c.UpdatedAt,
	)
}

func TestGetCity_ScansRow(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	now := time.Now()
	expected := types.CityCost{
		ID:                uuid.New(),
		Name:              "Lisbon",
		Country:           "Portugal",
		Currency:          "EUR",
		AccommodationCost: 70,
		FoodCost:          35,
		TransportCost:     8,
		ActivitiesCost:    15,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT ` + cityColumns + ` FROM city_costs WHERE id = $1`)).
		WithArgs(expected.ID).
		WillReturnRows(cityRow(expected))

	repo := NewRepository(mockPool, testLogger())
	got, err := repo.GetCity(context.Background(), expected.ID)
	require.NoError(t, err)
	assert.Equal(t, &expected, got)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetCity_NotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	cityID := uuid.New()
	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT ` + cityColumns + ` FROM city_costs WHERE id = $1`)).
		WithArgs(cityID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "country", "currency",
			"accommodation_cost", "food_cost", "transport_cost", "activities_cost",
			"created_at", "updated_at",
		}))

	repo := NewRepository(mockPool, testLogger())
	_, err = repo.GetCity(context.Background(), cityID)
	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestDeleteCity_NotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	cityID := uuid.New()
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM city_costs WHERE id = $1`)).
		WithArgs(cityID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewRepository(mockPool, testLogger())
	err = repo.DeleteCity(context.Background(), cityID)
	assert.ErrorIs(t, err, ErrCityNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestSearchCities_ReturnsMatches(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "name", "country", "currency",
		"accommodation_cost", "food_cost", "transport_cost", "activities_cost",
		"created_at", "updated_at",
	}).
		AddRow(uuid.New(), "Madrid", "Spain", "EUR", 80.0, 40.0, 10.0, 20.0, now, now).
		AddRow(uuid.New(), "Malaga", "Spain", "EUR", 60.0, 30.0, 6.0, 15.0, now, now)

	mockPool.ExpectQuery("SELECT .+ FROM city_costs WHERE name ILIKE").
		WithArgs("Ma").
		WillReturnRows(rows)

	repo := NewRepository(mockPool, testLogger())
	cities, err := repo.SearchCities(context.Background(), "Ma")
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "Madrid", cities[0].Name)
	assert.Equal(t, "Malaga", cities[1].Name)
}
