package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// ErrForbidden is returned when a user touches a trip they do not own.
var ErrForbidden = errors.New("user does not own trip")

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateTrip(ctx context.Context, userID uuid.UUID, req types.CreateTripRequest) (*types.Trip, error)
	GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error)
	GetUserTrips(ctx context.Context, userID uuid.UUID) ([]*types.Trip, error)
	UpdateTrip(ctx context.Context, userID, tripID uuid.UUID, req types.UpdateTripRequest) (*types.Trip, error)
	DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error
}

// DayLoader loads a trip's day sequence. Satisfied by the itinerary
// repository; declared here so the detail read can embed days without a
// package cycle.
type DayLoader interface {
	GetDays(ctx context.Context, tripID uuid.UUID) ([]types.DayItinerary, error)
}

// LocationLoader loads a trip's saved locations. Satisfied by the
// saved-location repository.
type LocationLoader interface {
	GetLocationsByTrip(ctx context.Context, tripID uuid.UUID) ([]types.SavedLocation, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	days      DayLoader
	locations LocationLoader
}

func NewService(repo Repository, days DayLoader, locations LocationLoader, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		days:      days,
		locations: locations,
	}
}

func (s *ServiceImpl) CreateTrip(ctx context.Context, userID uuid.UUID, req types.CreateTripRequest) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("trip.name", req.Name),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateTrip"), slog.String("userID", userID.String()))

	if req.EndDate.Before(req.StartDate) {
		span.SetStatus(codes.Error, "Invalid date range")
		return nil, fmt.Errorf("trip end date precedes start date")
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	now := time.Now()
	t := types.Trip{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateTrip(ctx, t); err != nil {
		l.ErrorContext(ctx, "Failed to create trip", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create trip")
		return nil, err
	}

	l.InfoContext(ctx, "Trip created", slog.String("tripID", t.ID.String()))
	span.SetStatus(codes.Ok, "Trip created")
	return &t, nil
}

func (s *ServiceImpl) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GetTrip", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	t, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trip lookup failed")
		return nil, err
	}
	if t.UserID != userID {
		span.SetStatus(codes.Error, "Forbidden")
		return nil, ErrForbidden
	}

	// The detail read embeds the day sequence and saved locations; list
	// endpoints return bare trips. Loaders are optional so callers that
	// only need ownership checks can wire the repository alone.
	if s.days != nil {
		days, err := s.days.GetDays(ctx, tripID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Day load failed")
			return nil, err
		}
		t.Days = days
	}
	if s.locations != nil {
		locations, err := s.locations.GetLocationsByTrip(ctx, tripID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Location load failed")
			return nil, err
		}
		t.SavedLocations = locations
	}

	span.SetStatus(codes.Ok, "Trip fetched")
	return t, nil
}

func (s *ServiceImpl) GetUserTrips(ctx context.Context, userID uuid.UUID) ([]*types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GetUserTrips")
	defer span.End()

	trips, err := s.repo.GetTripsByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trip list failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Trips fetched")
	return trips, nil
}

func (s *ServiceImpl) UpdateTrip(ctx context.Context, userID, tripID uuid.UUID, req types.UpdateTripRequest) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "UpdateTrip", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateTrip"), slog.String("tripID", tripID.String()))

	t, err := s.GetTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Destination != nil {
		t.Destination = *req.Destination
	}
	if req.StartDate != nil {
		t.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		t.EndDate = *req.EndDate
	}
	if req.Currency != nil {
		t.Currency = *req.Currency
	}
	if t.EndDate.Before(t.StartDate) {
		span.SetStatus(codes.Error, "Invalid date range")
		return nil, fmt.Errorf("trip end date precedes start date")
	}

	if err := s.repo.UpdateTrip(ctx, *t); err != nil {
		l.ErrorContext(ctx, "Failed to update trip", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update trip")
		return nil, err
	}
	t.UpdatedAt = time.Now()
	span.SetStatus(codes.Ok, "Trip updated")
	return t, nil
}

func (s *ServiceImpl) DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "DeleteTrip", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if _, err := s.GetTrip(ctx, userID, tripID); err != nil {
		return err
	}

	if err := s.repo.DeleteTrip(ctx, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete trip")
		return err
	}
	s.logger.InfoContext(ctx, "Trip deleted", slog.String("tripID", tripID.String()))
	span.SetStatus(codes.Ok, "Trip deleted")
	return nil
}
