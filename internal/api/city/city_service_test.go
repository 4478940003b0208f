package city

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) UpsertCity(ctx context.Context, city types.CityCost) (*types.CityCost, error) {
	args := m.Called(ctx, city)
	c, _ := args.Get(0).(*types.CityCost)
	return c, args.Error(1)
}

func (m *MockRepository) GetCity(ctx context.Context, cityID uuid.UUID) (*types.CityCost, error) {
	args := m.Called(ctx, cityID)
	c, _ := args.Get(0).(*types.CityCost)
	return c, args.Error(1)
}

func (m *MockRepository) SearchCities(ctx context.Context, query string) ([]types.CityCost, error) {
	args := m.Called(ctx, query)
	cities, _ := args.Get(0).([]types.CityCost)
	return cities, args.Error(1)
}

func (m *MockRepository) DeleteCity(ctx context.Context, cityID uuid.UUID) error {
	args := m.Called(ctx, cityID)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func madrid() *types.CityCost {
	return &types.CityCost{
		ID:                uuid.New(),
		Name:              "Madrid",
		Country:           "Spain",
		Currency:          "EUR",
		AccommodationCost: 80,
		FoodCost:          40,
		TransportCost:     10,
		ActivitiesCost:    20,
	}
}

func TestDailyBudget_ScalesByStyle(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	c := madrid()
	repo.On("GetCity", mock.Anything, c.ID).Return(c, nil)

	svc := NewService(repo, time.Hour, testLogger())

	budget, err := svc.DailyBudget(ctx, c.ID, types.TravelStyleLuxury)
	require.NoError(t, err)
	assert.Equal(t, 160.0, budget.Accommodation)
	assert.Equal(t, 80.0, budget.Food)
	assert.Equal(t, 20.0, budget.Transport)
	assert.Equal(t, 40.0, budget.Activities)
	assert.Equal(t, 300.0, budget.Total)

	budget, err = svc.DailyBudget(ctx, c.ID, types.TravelStyleBudget)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, budget.Total, 1e-9)

	budget, err = svc.DailyBudget(ctx, c.ID, types.TravelStyleMid)
	require.NoError(t, err)
	assert.Equal(t, 150.0, budget.Total)
}

func TestDailyBudget_RejectsUnknownStyle(t *testing.T) {
	svc := NewService(new(MockRepository), time.Hour, testLogger())
	_, err := svc.DailyBudget(context.Background(), uuid.New(), "backpacker")
	assert.ErrorIs(t, err, ErrInvalidTravelStyle)
}

func TestGetCity_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	c := madrid()
	repo.On("GetCity", mock.Anything, c.ID).Return(c, nil).Once()

	svc := NewService(repo, time.Hour, testLogger())

	first, err := svc.GetCity(ctx, c.ID)
	require.NoError(t, err)
	// Second read is served from the cache; the Once() expectation on the
	// repository would fail otherwise.
	second, err := svc.GetCity(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertExpectations(t)
}

func TestDeleteCity_EvictsCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	c := madrid()
	repo.On("GetCity", mock.Anything, c.ID).Return(c, nil).Twice()
	repo.On("DeleteCity", mock.Anything, c.ID).Return(nil)

	svc := NewService(repo, time.Hour, testLogger())

	_, err := svc.GetCity(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCity(ctx, c.ID))

	// The eviction forces the next read back to the repository.
	_, err = svc.GetCity(ctx, c.ID)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
