package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/app/observability/metrics"
	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// ErrInvalidSyncMode is returned when a sync request carries a mode other
// than forward or backward.
var ErrInvalidSyncMode = errors.New("sync mode must be forward or backward")

// ErrDayNotFound is returned when an operation targets a day number outside
// the trip's day sequence.
var ErrDayNotFound = errors.New("itinerary day not found")

// DayRouteSummary pairs a day number with its walking-route estimate.
type DayRouteSummary struct {
	DayNumber int              `json:"day_number"`
	Route     types.RouteCache `json:"route"`
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetItinerary(ctx context.Context, userID, tripID uuid.UUID) ([]types.DayItinerary, error)
	AddItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, req types.CreateItemRequest) (*types.ItineraryItem, error)
	UpdateItem(ctx context.Context, userID, tripID, itemID uuid.UUID, req types.UpdateItemRequest) (*types.ItineraryItem, error)
	DeleteItem(ctx context.Context, userID, tripID, itemID uuid.UUID) error
	AutoFill(ctx context.Context, userID, tripID uuid.UUID) ([]types.DayItinerary, error)
	Sync(ctx context.Context, userID, tripID uuid.UUID, req types.SyncRequest) ([]types.DayItinerary, error)
	Disconnections(ctx context.Context, userID, tripID uuid.UUID) ([]types.Disconnection, error)
	GetStats(ctx context.Context, userID, tripID uuid.UUID) (types.ItineraryStats, error)
	RouteSummaries(ctx context.Context, userID, tripID uuid.UUID) ([]DayRouteSummary, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repo       Repository
	tripRepo   trip.Repository
	routeCache *gocache.Cache
	appMetrics *metrics.AppMetrics
}

// NewService wires the itinerary service. appMetrics may be nil, in which
// case counters are simply not recorded.
func NewService(repo Repository, tripRepo trip.Repository, routeCacheTTL time.Duration, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	if routeCacheTTL <= 0 {
		routeCacheTTL = DefaultRouteCacheMaxAge
	}
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		tripRepo:   tripRepo,
		routeCache: gocache.New(routeCacheTTL, 2*routeCacheTTL),
		appMetrics: appMetrics,
	}
}

// checkOwnership gates every itinerary operation on trip ownership.
func (s *ServiceImpl) checkOwnership(ctx context.Context, userID, tripID uuid.UUID) error {
	owner, err := s.tripRepo.GetTripOwner(ctx, tripID)
	if err != nil {
		return err
	}
	if owner != userID {
		return trip.ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) invalidateRouteSummaries(tripID uuid.UUID) {
	s.routeCache.Delete(routeSummaryKey(tripID))
}

func routeSummaryKey(tripID uuid.UUID) string {
	return "routes:" + tripID.String()
}

// GetItinerary returns the trip's full day sequence with stale route
// caches already dropped. Expired caches are also cleared in storage so
// they do not resurface on the next read.
func (s *ServiceImpl) GetItinerary(ctx context.Context, userID, tripID uuid.UUID) ([]types.DayItinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetItinerary", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}

	days, err := s.repo.GetDays(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return nil, err
	}

	now := time.Now()
	cleaned := CleanupRouteCache(days, DefaultRouteCacheMaxAge, now)
	for i := range days {
		if days[i].RouteCache != nil && cleaned[i].RouteCache == nil {
			if err := s.repo.ClearRouteCache(ctx, tripID, days[i].DayNumber); err != nil {
				s.logger.WarnContext(ctx, "Failed to clear expired route cache",
					slog.Int("dayNumber", days[i].DayNumber), slog.Any("error", err))
			}
		}
	}

	span.SetStatus(codes.Ok, "Itinerary fetched")
	return cleaned, nil
}

func (s *ServiceImpl) AddItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, req types.CreateItemRequest) (*types.ItineraryItem, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "AddItem", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.Int("day.number", dayNumber),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "AddItem"), slog.String("tripID", tripID.String()))

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}
	if dayNumber < 1 {
		span.SetStatus(codes.Error, "Invalid day number")
		return nil, ErrDayNotFound
	}

	visits := req.Visits
	if visits < 1 {
		visits = 1
	}
	item := types.ItineraryItem{
		ID:              uuid.New(),
		Name:            req.Name,
		Category:        req.Category,
		Amount:          req.Amount,
		Visits:          visits,
		TimeSlot:        req.TimeSlot,
		Location:        req.Location,
		BookingRequired: req.BookingRequired,
		BookingURL:      req.BookingURL,
		IsAISuggestion:  req.IsAISuggestion,
	}
	if item.Category == "" {
		item.Category = types.CategoryOther
	}

	if err := s.repo.AddItem(ctx, tripID, dayNumber, item); err != nil {
		l.ErrorContext(ctx, "Failed to add itinerary item", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to add item")
		return nil, err
	}
	s.invalidateRouteSummaries(tripID)

	span.SetStatus(codes.Ok, "Item added")
	return &item, nil
}

func (s *ServiceImpl) UpdateItem(ctx context.Context, userID, tripID, itemID uuid.UUID, req types.UpdateItemRequest) (*types.ItineraryItem, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "UpdateItem", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("item.id", itemID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateItem"), slog.String("itemID", itemID.String()))

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}

	item, _, err := s.repo.GetItem(ctx, tripID, itemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Item lookup failed")
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Amount != nil {
		item.Amount = *req.Amount
	}
	if req.Visits != nil {
		item.Visits = *req.Visits
	}
	if req.TimeSlot != nil {
		item.TimeSlot = req.TimeSlot
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	if req.BookingRequired != nil {
		item.BookingRequired = *req.BookingRequired
	}
	if req.BookingURL != nil {
		item.BookingURL = *req.BookingURL
	}

	if err := s.repo.UpdateItem(ctx, tripID, *item); err != nil {
		l.ErrorContext(ctx, "Failed to update itinerary item", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update item")
		return nil, err
	}
	s.invalidateRouteSummaries(tripID)

	span.SetStatus(codes.Ok, "Item updated")
	return item, nil
}

func (s *ServiceImpl) DeleteItem(ctx context.Context, userID, tripID, itemID uuid.UUID) error {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "DeleteItem", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("item.id", itemID.String()),
	))
	defer span.End()

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return err
	}
	if err := s.repo.DeleteItem(ctx, tripID, itemID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete item")
		return err
	}
	s.invalidateRouteSummaries(tripID)
	span.SetStatus(codes.Ok, "Item deleted")
	return nil
}

// AutoFill bookends every day of the trip with the primary accommodation.
// Days the trip's date range implies but that have never been touched are
// materialized first, so a freshly created trip gets a full skeleton.
func (s *ServiceImpl) AutoFill(ctx context.Context, userID, tripID uuid.UUID) ([]types.DayItinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "AutoFill", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "AutoFill"), slog.String("tripID", tripID.String()))

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}

	primary, err := s.repo.GetPrimaryAccommodation(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No primary accommodation")
		return nil, err
	}

	days, err := s.repo.GetDays(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return nil, err
	}

	t, err := s.tripRepo.GetTrip(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return nil, err
	}
	days = padDays(days, tripDayCount(t))

	before := countItems(days)
	filled := AutoFillAllDays(days, *primary)
	inserted := countItems(filled) - before

	if err := s.repo.SaveDays(ctx, tripID, filled); err != nil {
		l.ErrorContext(ctx, "Failed to persist auto-filled itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save itinerary")
		return nil, err
	}
	s.invalidateRouteSummaries(tripID)

	if s.appMetrics != nil {
		s.appMetrics.AutoFillItemsTotal.Add(ctx, int64(inserted))
	}
	l.InfoContext(ctx, "Auto-fill applied",
		slog.Int("days", len(filled)), slog.Int("itemsInserted", inserted))
	span.SetAttributes(attribute.Int("autofill.items_inserted", inserted))
	span.SetStatus(codes.Ok, "Auto-fill applied")
	return filled, nil
}

// tripDayCount derives the expected day count from the trip's date range,
// inclusive of both endpoints.
func tripDayCount(t *types.Trip) int {
	if t.EndDate.Before(t.StartDate) {
		return 0
	}
	return int(t.EndDate.Sub(t.StartDate).Hours()/24) + 1
}

// padDays fills holes in the day sequence with empty days up to count,
// keeping existing days untouched.
func padDays(days []types.DayItinerary, count int) []types.DayItinerary {
	existing := make(map[int]types.DayItinerary, len(days))
	max := count
	for _, d := range days {
		existing[d.DayNumber] = d
		if d.DayNumber > max {
			max = d.DayNumber
		}
	}
	out := make([]types.DayItinerary, 0, max)
	for n := 1; n <= max; n++ {
		if d, ok := existing[n]; ok {
			out = append(out, d)
		} else {
			out = append(out, types.DayItinerary{DayNumber: n})
		}
	}
	return out
}

func countItems(days []types.DayItinerary) int {
	var n int
	for _, d := range days {
		n += len(d.Items)
	}
	return n
}

// Sync reconciles the boundary between a day and its predecessor. The
// request's day number names the later day, matching disconnection reports.
func (s *ServiceImpl) Sync(ctx context.Context, userID, tripID uuid.UUID, req types.SyncRequest) ([]types.DayItinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Sync", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.Int("day.number", req.DayNumber),
		attribute.String("sync.mode", req.Mode),
	))
	defer span.End()

	mode := SyncMode(req.Mode)
	if mode != SyncForward && mode != SyncBackward {
		span.SetStatus(codes.Error, "Invalid sync mode")
		return nil, ErrInvalidSyncMode
	}

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}

	days, err := s.repo.GetDays(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return nil, err
	}

	prevIdx, currIdx := -1, -1
	for i, d := range days {
		switch d.DayNumber {
		case req.DayNumber - 1:
			prevIdx = i
		case req.DayNumber:
			currIdx = i
		}
	}
	if prevIdx < 0 || currIdx < 0 {
		span.SetStatus(codes.Error, "Day pair not found")
		return nil, ErrDayNotFound
	}

	prevOut, currOut := SyncConsecutiveDays(days[prevIdx], days[currIdx], mode)
	if err := s.repo.SaveDay(ctx, tripID, prevOut); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save synced day")
		return nil, err
	}
	if err := s.repo.SaveDay(ctx, tripID, currOut); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save synced day")
		return nil, err
	}
	s.invalidateRouteSummaries(tripID)

	if s.appMetrics != nil {
		s.appMetrics.SyncOperationsTotal.Add(ctx, 1)
	}
	span.SetStatus(codes.Ok, "Days synced")
	return []types.DayItinerary{prevOut, currOut}, nil
}

func (s *ServiceImpl) Disconnections(ctx context.Context, userID, tripID uuid.UUID) ([]types.Disconnection, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Disconnections", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}
	days, err := s.repo.GetDays(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return nil, err
	}

	reports := DetectDisconnectedDays(days)
	if s.appMetrics != nil && len(reports) > 0 {
		s.appMetrics.DisconnectionsDetected.Add(ctx, int64(len(reports)))
	}
	span.SetAttributes(attribute.Int("disconnections.count", len(reports)))
	span.SetStatus(codes.Ok, "Disconnections computed")
	return reports, nil
}

func (s *ServiceImpl) GetStats(ctx context.Context, userID, tripID uuid.UUID) (types.ItineraryStats, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetStats", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return types.ItineraryStats{}, err
	}
	days, err := s.repo.GetDays(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return types.ItineraryStats{}, err
	}
	span.SetStatus(codes.Ok, "Stats computed")
	return Stats(days), nil
}

// RouteSummaries returns a walking-route estimate per day with at least one
// located item. Fresh stored caches are reused; missing or expired ones are
// recomputed and written back. The assembled result is memoized in-process.
func (s *ServiceImpl) RouteSummaries(ctx context.Context, userID, tripID uuid.UUID) ([]DayRouteSummary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "RouteSummaries", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}

	if cached, found := s.routeCache.Get(routeSummaryKey(tripID)); found {
		if summaries, ok := cached.([]DayRouteSummary); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "Route summaries served from cache")
			return summaries, nil
		}
	}

	days, err := s.repo.GetDays(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return nil, err
	}

	now := time.Now()
	days = CleanupRouteCache(days, DefaultRouteCacheMaxAge, now)

	var summaries []DayRouteSummary
	for _, day := range days {
		if !dayHasLocations(day) {
			continue
		}
		route := day.RouteCache
		if route == nil {
			route = ComputeRouteSummary(day, now)
			if err := s.repo.SetRouteCache(ctx, tripID, day.DayNumber, *route); err != nil {
				s.logger.WarnContext(ctx, "Failed to persist route cache",
					slog.Int("dayNumber", day.DayNumber), slog.Any("error", err))
			}
		}
		summaries = append(summaries, DayRouteSummary{DayNumber: day.DayNumber, Route: *route})
	}

	s.routeCache.Set(routeSummaryKey(tripID), summaries, gocache.DefaultExpiration)
	span.SetStatus(codes.Ok, fmt.Sprintf("Route summaries computed for %d days", len(summaries)))
	return summaries, nil
}

func dayHasLocations(day types.DayItinerary) bool {
	for _, item := range day.Items {
		if item.Location != nil {
			return true
		}
	}
	return false
}
