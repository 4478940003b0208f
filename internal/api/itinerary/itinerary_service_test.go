package itinerary

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

	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) GetDays(ctx context.Context, tripID uuid.UUID) ([]types.DayItinerary, error) {
	args := m.Called(ctx, tripID)
	days, _ := args.Get(0).([]types.DayItinerary)
	return days, args.Error(1)
}

func (m *MockRepository) SaveDays(ctx context.Context, tripID uuid.UUID, days []types.DayItinerary) error {
	args := m.Called(ctx, tripID, days)
	return args.Error(0)
}

func (m *MockRepository) SaveDay(ctx context.Context, tripID uuid.UUID, day types.DayItinerary) error {
	args := m.Called(ctx, tripID, day)
	return args.Error(0)
}

func (m *MockRepository) AddItem(ctx context.Context, tripID uuid.UUID, dayNumber int, item types.ItineraryItem) error {
	args := m.Called(ctx, tripID, dayNumber, item)
	return args.Error(0)
}

func (m *MockRepository) UpdateItem(ctx context.Context, tripID uuid.UUID, item types.ItineraryItem) error {
	args := m.Called(ctx, tripID, item)
	return args.Error(0)
}

func (m *MockRepository) DeleteItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	args := m.Called(ctx, tripID, itemID)
	return args.Error(0)
}

func (m *MockRepository) GetItem(ctx context.Context, tripID, itemID uuid.UUID) (*types.ItineraryItem, int, error) {
	args := m.Called(ctx, tripID, itemID)
	item, _ := args.Get(0).(*types.ItineraryItem)
	return item, args.Int(1), args.Error(2)
}

func (m *MockRepository) SetRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int, cache types.RouteCache) error {
	args := m.Called(ctx, tripID, dayNumber, cache)
	return args.Error(0)
}

func (m *MockRepository) ClearRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int) error {
	args := m.Called(ctx, tripID, dayNumber)
	return args.Error(0)
}

func (m *MockRepository) GetPrimaryAccommodation(ctx context.Context, tripID uuid.UUID) (*types.SavedLocation, error) {
	args := m.Called(ctx, tripID)
	loc, _ := args.Get(0).(*types.SavedLocation)
	return loc, args.Error(1)
}

type MockTripRepository struct {
	mock.Mock
}

var _ trip.Repository = (*MockTripRepository)(nil)

func (m *MockTripRepository) CreateTrip(ctx context.Context, t types.Trip) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTripRepository) GetTrip(ctx context.Context, tripID uuid.UUID) (*types.Trip, error) {
	args := m.Called(ctx, tripID)
	t, _ := args.Get(0).(*types.Trip)
	return t, args.Error(1)
}

func (m *MockTripRepository) GetTripsByUser(ctx context.Context, userID uuid.UUID) ([]*types.Trip, error) {
	args := m.Called(ctx, userID)
	trips, _ := args.Get(0).([]*types.Trip)
	return trips, args.Error(1)
}

func (m *MockTripRepository) UpdateTrip(ctx context.Context, t types.Trip) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTripRepository) DeleteTrip(ctx context.Context, tripID uuid.UUID) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

func (m *MockTripRepository) GetTripOwner(ctx context.Context, tripID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, tripID)
	owner, _ := args.Get(0).(uuid.UUID)
	return owner, args.Error(1)
}

func testServiceLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAutoFill_PadsDaysFromDateRange(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	tripRepo.On("GetTrip", mock.Anything, tripID).Return(&types.Trip{
		ID:        tripID,
		UserID:    userID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 2),
	}, nil)

	hotel := testHotel()
	repo.On("GetPrimaryAccommodation", mock.Anything, tripID).Return(&hotel, nil)
	repo.On("GetDays", mock.Anything, tripID).Return([]types.DayItinerary{
		{DayNumber: 2, Items: []types.ItineraryItem{manualItem("Prado Museum", types.CategoryActivities)}},
	}, nil)

	var saved []types.DayItinerary
	repo.On("SaveDays", mock.Anything, tripID, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(2).([]types.DayItinerary)
	}).Return(nil)

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	days, err := svc.AutoFill(ctx, userID, tripID)
	require.NoError(t, err)

	// Three calendar days, all bookended.
	require.Len(t, days, 3)
	assert.Equal(t, saved, days)
	for _, day := range days {
		require.NotEmpty(t, day.Items)
		assert.Equal(t, types.CategoryAccommodation, day.Items[0].Category)
		assert.Equal(t, types.CategoryAccommodation, day.Items[len(day.Items)-1].Category)
	}
	// The pre-existing manual item survives in the middle of day 2.
	require.Len(t, days[1].Items, 3)
	assert.Equal(t, "Prado Museum", days[1].Items[1].Name)

	repo.AssertExpectations(t)
	tripRepo.AssertExpectations(t)
}

func TestAutoFill_RequiresPrimaryAccommodation(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	repo.On("GetPrimaryAccommodation", mock.Anything, tripID).Return(nil, ErrNoPrimaryAccommodation)

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	_, err := svc.AutoFill(ctx, userID, tripID)
	assert.ErrorIs(t, err, ErrNoPrimaryAccommodation)
	repo.AssertNotCalled(t, "SaveDays", mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_ForwardPersistsBothDays(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	repo.On("GetDays", mock.Anything, tripID).Return([]types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{locatedItem("Retiro Park", types.GeoLocation{Latitude: 40.4153, Longitude: -3.6845, Address: "Madrid"})}},
		{DayNumber: 2, Items: []types.ItineraryItem{locatedItem("Louvre", types.GeoLocation{Latitude: 48.8606, Longitude: 2.3376, Address: "Paris"})}},
	}, nil)
	repo.On("SaveDay", mock.Anything, tripID, mock.Anything).Return(nil).Twice()

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	days, err := svc.Sync(ctx, userID, tripID, types.SyncRequest{DayNumber: 2, Mode: "forward"})
	require.NoError(t, err)
	require.Len(t, days, 2)

	// Day 2's first item now carries day 1's closing location.
	assert.InDelta(t, 40.4153, days[1].Items[0].Location.Latitude, 1e-9)
	assert.Equal(t, "Louvre", days[1].Items[0].Name)
	repo.AssertExpectations(t)
}

func TestSync_RejectsUnknownMode(t *testing.T) {
	svc := NewService(new(MockRepository), new(MockTripRepository), time.Hour, nil, testServiceLogger())
	_, err := svc.Sync(context.Background(), uuid.New(), uuid.New(), types.SyncRequest{DayNumber: 2, Mode: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidSyncMode)
}

func TestSync_MissingDayPair(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	repo.On("GetDays", mock.Anything, tripID).Return([]types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{manualItem("Breakfast", types.CategoryFood)}},
	}, nil)

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	_, err := svc.Sync(ctx, userID, tripID, types.SyncRequest{DayNumber: 2, Mode: "forward"})
	assert.ErrorIs(t, err, ErrDayNotFound)
}

func TestGetItinerary_RejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(uuid.New(), nil)

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	_, err := svc.GetItinerary(ctx, uuid.New(), tripID)
	assert.ErrorIs(t, err, trip.ErrForbidden)
	repo.AssertNotCalled(t, "GetDays", mock.Anything, mock.Anything)
}

func TestGetItinerary_DropsExpiredRouteCaches(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	stale := &types.RouteCache{
		TotalDistanceMeters:  1200,
		TotalDurationMinutes: 16,
		CalculatedAt:         time.Now().Add(-8 * 24 * time.Hour),
	}
	fresh := &types.RouteCache{
		TotalDistanceMeters:  800,
		TotalDurationMinutes: 10.7,
		CalculatedAt:         time.Now().Add(-time.Hour),
	}
	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	repo.On("GetDays", mock.Anything, tripID).Return([]types.DayItinerary{
		{DayNumber: 1, RouteCache: stale},
		{DayNumber: 2, RouteCache: fresh},
	}, nil)
	repo.On("ClearRouteCache", mock.Anything, tripID, 1).Return(nil)

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	days, err := svc.GetItinerary(ctx, userID, tripID)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Nil(t, days[0].RouteCache)
	assert.Equal(t, fresh, days[1].RouteCache)
	repo.AssertExpectations(t)
}

func TestRouteSummaries_ComputesAndMemoizes(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	repo.On("GetDays", mock.Anything, tripID).Return([]types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{
			locatedItem("A", types.GeoLocation{Latitude: 40.4168, Longitude: -3.7038}),
			locatedItem("B", types.GeoLocation{Latitude: 40.4268, Longitude: -3.7038}),
		}},
		{DayNumber: 2, Items: []types.ItineraryItem{manualItem("Unlocated", types.CategoryFood)}},
	}, nil).Once()
	repo.On("SetRouteCache", mock.Anything, tripID, 1, mock.Anything).Return(nil).Once()

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())

	summaries, err := svc.RouteSummaries(ctx, userID, tripID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].DayNumber)
	assert.InDelta(t, 1112, summaries[0].Route.TotalDistanceMeters, 5)

	// Second call is served from the in-process cache; GetDays is not hit
	// again (the Once() expectation would fail otherwise).
	again, err := svc.RouteSummaries(ctx, userID, tripID)
	require.NoError(t, err)
	assert.Equal(t, summaries, again)
	repo.AssertExpectations(t)
}

func TestAddItem_DefaultsCategoryAndVisits(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	repo.On("AddItem", mock.Anything, tripID, 1, mock.Anything).Return(nil)

	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	item, err := svc.AddItem(ctx, userID, tripID, 1, types.CreateItemRequest{Name: "Tapas"})
	require.NoError(t, err)
	assert.Equal(t, types.CategoryOther, item.Category)
	assert.Equal(t, 1, item.Visits)
	assert.NotEqual(t, uuid.Nil, item.ID)
}

func TestUpdateItem_MergesPartialFields(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripID := uuid.New()
	itemID := uuid.New()
	repo := new(MockRepository)
	tripRepo := new(MockTripRepository)

	existing := manualItem("Old name", types.CategoryFood)
	existing.ID = itemID
	existing.Amount = 10

	tripRepo.On("GetTripOwner", mock.Anything, tripID).Return(userID, nil)
	repo.On("GetItem", mock.Anything, tripID, itemID).Return(&existing, 1, nil)

	var persisted types.ItineraryItem
	repo.On("UpdateItem", mock.Anything, tripID, mock.Anything).Run(func(args mock.Arguments) {
		persisted = args.Get(2).(types.ItineraryItem)
	}).Return(nil)

	name := "New name"
	svc := NewService(repo, tripRepo, time.Hour, nil, testServiceLogger())
	item, err := svc.UpdateItem(ctx, userID, tripID, itemID, types.UpdateItemRequest{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "New name", item.Name)
	assert.Equal(t, 10.0, item.Amount)
	assert.Equal(t, persisted, *item)
}
