package city

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// ErrInvalidTravelStyle is returned when a budget calculation names an
// unknown style.
var ErrInvalidTravelStyle = errors.New("travel style must be budget, mid or luxury")

// styleMultipliers scale the mid-range baseline stored per city.
var styleMultipliers = map[types.TravelStyle]float64{
	types.TravelStyleBudget: 0.6,
	types.TravelStyleMid:    1.0,
	types.TravelStyleLuxury: 2.0,
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	UpsertCity(ctx context.Context, req types.UpsertCityCostRequest) (*types.CityCost, error)
	GetCity(ctx context.Context, cityID uuid.UUID) (*types.CityCost, error)
	SearchCities(ctx context.Context, query string) ([]types.CityCost, error)
	DeleteCity(ctx context.Context, cityID uuid.UUID) error
	DailyBudget(ctx context.Context, cityID uuid.UUID, style types.TravelStyle) (*types.DailyBudget, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	cache  *gocache.Cache
}

// NewService wires the city cost service. Reads go through an in-process
// cache since the cost table changes rarely and is hit on every budget
// calculation.
func NewService(repo Repository, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func cityKey(cityID uuid.UUID) string {
	return "city:" + cityID.String()
}

func (s *ServiceImpl) UpsertCity(ctx context.Context, req types.UpsertCityCostRequest) (*types.CityCost, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "UpsertCity", trace.WithAttributes(
		attribute.String("city.name", req.Name),
		attribute.String("city.country", req.Country),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpsertCity"), slog.String("city", req.Name))

	city := types.CityCost{
		ID:                uuid.New(),
		Name:              req.Name,
		Country:           req.Country,
		Currency:          req.Currency,
		AccommodationCost: req.AccommodationCost,
		FoodCost:          req.FoodCost,
		TransportCost:     req.TransportCost,
		ActivitiesCost:    req.ActivitiesCost,
	}
	stored, err := s.repo.UpsertCity(ctx, city)
	if err != nil {
		l.ErrorContext(ctx, "Failed to upsert city", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upsert city")
		return nil, err
	}

	// The stored id may differ from the generated one on a conflict
	// update, so refresh under the authoritative key.
	s.cache.Set(cityKey(stored.ID), stored, gocache.DefaultExpiration)

	l.InfoContext(ctx, "City upserted", slog.String("cityID", stored.ID.String()))
	span.SetStatus(codes.Ok, "City upserted")
	return stored, nil
}

func (s *ServiceImpl) GetCity(ctx context.Context, cityID uuid.UUID) (*types.CityCost, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "GetCity", trace.WithAttributes(
		attribute.String("city.id", cityID.String()),
	))
	defer span.End()

	if cached, found := s.cache.Get(cityKey(cityID)); found {
		if c, ok := cached.(*types.CityCost); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "City served from cache")
			return c, nil
		}
	}

	c, err := s.repo.GetCity(ctx, cityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City lookup failed")
		return nil, err
	}
	s.cache.Set(cityKey(cityID), c, gocache.DefaultExpiration)
	span.SetStatus(codes.Ok, "City fetched")
	return c, nil
}

func (s *ServiceImpl) SearchCities(ctx context.Context, query string) ([]types.CityCost, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "SearchCities", trace.WithAttributes(
		attribute.String("city.query", query),
	))
	defer span.End()

	cities, err := s.repo.SearchCities(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City search failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Cities searched")
	return cities, nil
}

func (s *ServiceImpl) DeleteCity(ctx context.Context, cityID uuid.UUID) error {
	ctx, span := otel.Tracer("CityService").Start(ctx, "DeleteCity", trace.WithAttributes(
		attribute.String("city.id", cityID.String()),
	))
	defer span.End()

	if err := s.repo.DeleteCity(ctx, cityID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete city")
		return err
	}
	s.cache.Delete(cityKey(cityID))
	s.logger.InfoContext(ctx, "City deleted", slog.String("cityID", cityID.String()))
	span.SetStatus(codes.Ok, "City deleted")
	return nil
}

// DailyBudget scales a city's mid-range baseline by the travel style.
func (s *ServiceImpl) DailyBudget(ctx context.Context, cityID uuid.UUID, style types.TravelStyle) (*types.DailyBudget, error) {
	ctx, span := otel.Tracer("CityService").Start(ctx, "DailyBudget", trace.WithAttributes(
		attribute.String("city.id", cityID.String()),
		attribute.String("budget.style", string(style)),
	))
	defer span.End()

	factor, ok := styleMultipliers[style]
	if !ok {
		span.SetStatus(codes.Error, "Invalid travel style")
		return nil, ErrInvalidTravelStyle
	}

	c, err := s.GetCity(ctx, cityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "City lookup failed")
		return nil, err
	}

	budget := &types.DailyBudget{
		CityID:        c.ID,
		CityName:      c.Name,
		Style:         style,
		Accommodation: c.AccommodationCost * factor,
		Food:          c.FoodCost * factor,
		Transport:     c.TransportCost * factor,
		Activities:    c.ActivitiesCost * factor,
	}
	budget.Total = budget.Accommodation + budget.Food + budget.Transport + budget.Activities

	span.SetStatus(codes.Ok, "Daily budget computed")
	return budget, nil
}
