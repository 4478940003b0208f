package savedlocation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/internal/api/itinerary"
	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// ErrPrimaryMustBeAccommodation is returned when a non-lodging location is
// promoted to primary.
var ErrPrimaryMustBeAccommodation = errors.New("only an accommodation can be the primary location")

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateLocation(ctx context.Context, userID, tripID uuid.UUID, req types.CreateSavedLocationRequest) (*types.SavedLocation, error)
	GetLocations(ctx context.Context, userID, tripID uuid.UUID) ([]types.SavedLocation, error)
	UpdateLocation(ctx context.Context, userID, tripID, locationID uuid.UUID, req types.UpdateSavedLocationRequest) (*types.SavedLocation, error)
	DeleteLocation(ctx context.Context, userID, tripID, locationID uuid.UUID) error
}

// ServiceImpl owns the saved location lifecycle, including the cascade
// that keeps auto-filled itinerary items consistent when a location is
// edited or removed.
type ServiceImpl struct {
	logger        *slog.Logger
	repo          Repository
	tripRepo      trip.Repository
	itineraryRepo itinerary.Repository
}

func NewService(repo Repository, tripRepo trip.Repository, itineraryRepo itinerary.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:        logger,
		repo:          repo,
		tripRepo:      tripRepo,
		itineraryRepo: itineraryRepo,
	}
}

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

func (s *ServiceImpl) CreateLocation(ctx context.Context, userID, tripID uuid.UUID, req types.CreateSavedLocationRequest) (*types.SavedLocation, error) {
	ctx, span := otel.Tracer("SavedLocationService").Start(ctx, "CreateLocation", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("location.name", req.Name),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateLocation"), slog.String("tripID", tripID.String()))

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = types.LocationCategoryOther
	}
	isPrimary := req.IsPrimary && category == types.LocationCategoryAccommodation
	if isPrimary {
		if err := s.repo.ClearPrimary(ctx, tripID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to demote current primary")
			return nil, err
		}
	}

	loc := types.SavedLocation{
		ID:        uuid.New(),
		TripID:    tripID,
		Name:      req.Name,
		Category:  category,
		Location:  req.Location,
		IsPrimary: isPrimary,
		Icon:      req.Icon,
		Notes:     req.Notes,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		l.ErrorContext(ctx, "Failed to create saved location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create saved location")
		return nil, err
	}

	l.InfoContext(ctx, "Saved location created", slog.String("locationID", loc.ID.String()))
	span.SetStatus(codes.Ok, "Saved location created")
	return &loc, nil
}

func (s *ServiceImpl) GetLocations(ctx context.Context, userID, tripID uuid.UUID) ([]types.SavedLocation, error) {
	ctx, span := otel.Tracer("SavedLocationService").Start(ctx, "GetLocations", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}
	locations, err := s.repo.GetLocationsByTrip(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list saved locations")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Saved locations fetched")
	return locations, nil
}

// UpdateLocation merges the partial update and, when the coordinates
// changed, repoints every auto-filled itinerary item generated from this
// location so the bookends follow the lodging.
func (s *ServiceImpl) UpdateLocation(ctx context.Context, userID, tripID, locationID uuid.UUID, req types.UpdateSavedLocationRequest) (*types.SavedLocation, error) {
	ctx, span := otel.Tracer("SavedLocationService").Start(ctx, "UpdateLocation", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("location.id", locationID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateLocation"), slog.String("locationID", locationID.String()))

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return nil, err
	}

	loc, err := s.repo.GetLocation(ctx, tripID, locationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Location lookup failed")
		return nil, err
	}

	locationChanged := false
	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Category != nil {
		loc.Category = *req.Category
	}
	if req.Location != nil && !itinerary.IsSameLocation(req.Location, &loc.Location) {
		locationChanged = true
	}
	if req.Location != nil {
		loc.Location = *req.Location
	}
	if req.Icon != nil {
		loc.Icon = *req.Icon
	}
	if req.Notes != nil {
		loc.Notes = *req.Notes
	}
	if req.IsPrimary != nil && *req.IsPrimary != loc.IsPrimary {
		if *req.IsPrimary {
			if loc.Category != types.LocationCategoryAccommodation {
				span.SetStatus(codes.Error, "Only accommodation can be primary")
				return nil, ErrPrimaryMustBeAccommodation
			}
			if err := s.repo.ClearPrimary(ctx, tripID); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "Failed to demote current primary")
				return nil, err
			}
		}
		loc.IsPrimary = *req.IsPrimary
	}

	if err := s.repo.UpdateLocation(ctx, *loc); err != nil {
		l.ErrorContext(ctx, "Failed to update saved location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update saved location")
		return nil, err
	}

	if locationChanged {
		if err := s.repointAutoFilledItems(ctx, tripID, locationID, *loc); err != nil {
			l.ErrorContext(ctx, "Failed to repoint auto-filled items", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to update dependent itinerary items")
			return nil, err
		}
	}

	span.SetStatus(codes.Ok, "Saved location updated")
	return loc, nil
}

// DeleteLocation removes the location and strips every auto-filled
// itinerary item it generated, so no item keeps a dangling back-reference.
func (s *ServiceImpl) DeleteLocation(ctx context.Context, userID, tripID, locationID uuid.UUID) error {
	ctx, span := otel.Tracer("SavedLocationService").Start(ctx, "DeleteLocation", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("location.id", locationID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "DeleteLocation"), slog.String("locationID", locationID.String()))

	if err := s.checkOwnership(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ownership check failed")
		return err
	}

	days, err := s.itineraryRepo.GetDays(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load itinerary")
		return err
	}
	stripped := itinerary.RemoveAutoFilledItems(days, locationID)
	if countItems(stripped) != countItems(days) {
		if err := s.itineraryRepo.SaveDays(ctx, tripID, stripped); err != nil {
			l.ErrorContext(ctx, "Failed to strip auto-filled items", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to update dependent itinerary items")
			return err
		}
	}

	if err := s.repo.DeleteLocation(ctx, tripID, locationID); err != nil {
		l.ErrorContext(ctx, "Failed to delete saved location", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete saved location")
		return err
	}

	l.InfoContext(ctx, "Saved location deleted")
	span.SetStatus(codes.Ok, "Saved location deleted")
	return nil
}

func (s *ServiceImpl) repointAutoFilledItems(ctx context.Context, tripID, locationID uuid.UUID, loc types.SavedLocation) error {
	days, err := s.itineraryRepo.GetDays(ctx, tripID)
	if err != nil {
		return err
	}
	updated := itinerary.UpdateAutoFilledItems(days, locationID, loc)
	return s.itineraryRepo.SaveDays(ctx, tripID, updated)
}

func countItems(days []types.DayItinerary) int {
	var n int
	for _, d := range days {
		n += len(d.Items)
	}
	return n
}
