package export

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderbudget/go-trip-budget/internal/api/itinerary"
	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

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

type MockItineraryRepository struct {
	mock.Mock
}

var _ itinerary.Repository = (*MockItineraryRepository)(nil)

func (m *MockItineraryRepository) GetDays(ctx context.Context, tripID uuid.UUID) ([]types.DayItinerary, error) {
	args := m.Called(ctx, tripID)
	days, _ := args.Get(0).([]types.DayItinerary)
	return days, args.Error(1)
}

func (m *MockItineraryRepository) SaveDays(ctx context.Context, tripID uuid.UUID, days []types.DayItinerary) error {
	args := m.Called(ctx, tripID, days)
	return args.Error(0)
}

func (m *MockItineraryRepository) SaveDay(ctx context.Context, tripID uuid.UUID, day types.DayItinerary) error {
	args := m.Called(ctx, tripID, day)
	return args.Error(0)
}

func (m *MockItineraryRepository) AddItem(ctx context.Context, tripID uuid.UUID, dayNumber int, item types.ItineraryItem) error {
	args := m.Called(ctx, tripID, dayNumber, item)
	return args.Error(0)
}

func (m *MockItineraryRepository) UpdateItem(ctx context.Context, tripID uuid.UUID, item types.ItineraryItem) error {
	args := m.Called(ctx, tripID, item)
	return args.Error(0)
}

func (m *MockItineraryRepository) DeleteItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	args := m.Called(ctx, tripID, itemID)
	return args.Error(0)
}

func (m *MockItineraryRepository) GetItem(ctx context.Context, tripID, itemID uuid.UUID) (*types.ItineraryItem, int, error) {
	args := m.Called(ctx, tripID, itemID)
	item, _ := args.Get(0).(*types.ItineraryItem)
	return item, args.Int(1), args.Error(2)
}

func (m *MockItineraryRepository) SetRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int, cache types.RouteCache) error {
	args := m.Called(ctx, tripID, dayNumber, cache)
	return args.Error(0)
}

func (m *MockItineraryRepository) ClearRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int) error {
	args := m.Called(ctx, tripID, dayNumber)
	return args.Error(0)
}

func (m *MockItineraryRepository) GetPrimaryAccommodation(ctx context.Context, tripID uuid.UUID) (*types.SavedLocation, error) {
	args := m.Called(ctx, tripID)
	loc, _ := args.Get(0).(*types.SavedLocation)
	return loc, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTrip(userID uuid.UUID) *types.Trip {
	return &types.Trip{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        "Madrid Getaway",
		Destination: "Madrid, Spain",
		StartDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
		Currency:    "EUR",
	}
}

func sampleDays() []types.DayItinerary {
	return []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{
			{
				ID:       uuid.New(),
				Name:     "Prado Museum",
				Category: types.CategoryActivities,
				Amount:   15,
				Visits:   2,
				TimeSlot: &types.TimeSlot{StartTime: "10:00", EndTime: "12:30"},
				Location: &types.GeoLocation{Latitude: 40.4138, Longitude: -3.6921, Address: "Paseo del Prado, Madrid"},
			},
			{
				ID:       uuid.New(),
				Name:     "Tapas; with friends",
				Category: types.CategoryFood,
				Amount:   30,
				Visits:   1,
				TimeSlot: &types.TimeSlot{StartTime: "20:00"},
			},
		}},
		{DayNumber: 2, Items: []types.ItineraryItem{
			{
				ID:       uuid.New(),
				Name:     "Untimed stroll",
				Category: types.CategoryActivities,
				Amount:   0,
				Visits:   1,
			},
		}},
	}
}

func TestBuildICal_EmitsTimedEvents(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripRepo := new(MockTripRepository)
	itinRepo := new(MockItineraryRepository)

	tr := sampleTrip(userID)
	tripRepo.On("GetTrip", mock.Anything, tr.ID).Return(tr, nil)
	itinRepo.On("GetDays", mock.Anything, tr.ID).Return(sampleDays(), nil)

	svc := NewService(tripRepo, itinRepo, testLogger())
	data, filename, err := svc.BuildICal(ctx, userID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Madrid-Getaway.ics", filename)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))

	// Two timed items, one untimed item skipped.
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART:20260601T100000")
	assert.Contains(t, out, "DTEND:20260601T123000")
	// Dinner has no end time, so it defaults to one hour.
	assert.Contains(t, out, "DTSTART:20260601T200000")
	assert.Contains(t, out, "DTEND:20260601T210000")
	assert.NotContains(t, out, "Untimed stroll")

	// Reserved characters are escaped.
	assert.Contains(t, out, "Tapas\\; with friends")
	assert.Contains(t, out, "LOCATION:Paseo del Prado\\, Madrid")
}

func TestBuildICal_RejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	tripRepo := new(MockTripRepository)
	itinRepo := new(MockItineraryRepository)

	tr := sampleTrip(uuid.New())
	tripRepo.On("GetTrip", mock.Anything, tr.ID).Return(tr, nil)

	svc := NewService(tripRepo, itinRepo, testLogger())
	_, _, err := svc.BuildICal(ctx, uuid.New(), tr.ID)
	assert.ErrorIs(t, err, trip.ErrForbidden)
	itinRepo.AssertNotCalled(t, "GetDays", mock.Anything, mock.Anything)
}

func TestBuildPDF_ProducesDocument(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	tripRepo := new(MockTripRepository)
	itinRepo := new(MockItineraryRepository)

	tr := sampleTrip(userID)
	tripRepo.On("GetTrip", mock.Anything, tr.ID).Return(tr, nil)
	itinRepo.On("GetDays", mock.Anything, tr.ID).Return(sampleDays(), nil)

	svc := NewService(tripRepo, itinRepo, testLogger())
	data, filename, err := svc.BuildPDF(ctx, userID, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Madrid-Getaway.pdf", filename)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestRenderICal_FoldsLongLines(t *testing.T) {
	tr := sampleTrip(uuid.New())
	long := strings.Repeat("Very Long Activity Name ", 8)
	days := []types.DayItinerary{
		{DayNumber: 1, Items: []types.ItineraryItem{
			{ID: uuid.New(), Name: long, Category: types.CategoryActivities, Visits: 1,
				TimeSlot: &types.TimeSlot{StartTime: "09:00"}},
		}},
	}

	out := renderICal(tr, days, time.Now().UTC())
	for _, line := range strings.Split(string(out), "\r\n") {
		assert.LessOrEqual(t, len(line), 76, "line exceeds fold limit: %q", line)
	}
}
