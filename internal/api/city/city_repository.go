package city

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// ErrCityNotFound is returned when a city id or name does not exist.
var ErrCityNotFound = errors.New("city not found")

// PgxPool is the subset of pgxpool.Pool this repository needs. Narrowed
// to an interface so tests can substitute a pgxmock pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	UpsertCity(ctx context.Context, city types.CityCost) (*types.CityCost, error)
	GetCity(ctx context.Context, cityID uuid.UUID) (*types.CityCost, error)
	SearchCities(ctx context.Context, query string) ([]types.CityCost, error)
	DeleteCity(ctx context.Context, cityID uuid.UUID) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewRepository(pgpool PgxPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

const cityColumns = `id, name, country, currency, accommodation_cost, food_cost, transport_cost, activities_cost, created_at, updated_at`

// UpsertCity inserts a city or, when the name and country pair already
// exists, overwrites its cost baseline. Returns the stored row.
func (r *RepositoryImpl) UpsertCity(ctx context.Context, city types.CityCost) (*types.CityCost, error) {
	query := `
        INSERT INTO city_costs (id, name, country, currency, accommodation_cost, food_cost, transport_cost, activities_cost, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
        ON CONFLICT (name, country) DO UPDATE
        SET currency = EXCLUDED.currency,
            accommodation_cost = EXCLUDED.accommodation_cost,
            food_cost = EXCLUDED.food_cost,
            transport_cost = EXCLUDED.transport_cost,
            activities_cost = EXCLUDED.activities_cost,
            updated_at = now()
        RETURNING ` + cityColumns
	var out types.CityCost
	err := r.pgpool.QueryRow(ctx, query,
		city.ID, city.Name, city.Country, city.Currency,
		city.AccommodationCost, city.FoodCost, city.TransportCost, city.ActivitiesCost,
	).Scan(
		&out.ID, &out.Name, &out.Country, &out.Currency,
		&out.AccommodationCost, &out.FoodCost, &out.TransportCost, &out.ActivitiesCost,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert city", slog.Any("error", err))
		return nil, fmt.Errorf("failed to upsert city: %w", err)
	}
	return &out, nil
}

func (r *RepositoryImpl) GetCity(ctx context.Context, cityID uuid.UUID) (*types.CityCost, error) {
	query := `SELECT ` + cityColumns + ` FROM city_costs WHERE id = $1`
	var c types.CityCost
	err := r.pgpool.QueryRow(ctx, query, cityID).Scan(
		&c.ID, &c.Name, &c.Country, &c.Currency,
		&c.AccommodationCost, &c.FoodCost, &c.TransportCost, &c.ActivitiesCost,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get city", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return &c, nil
}

// SearchCities matches city names by case-insensitive prefix. An empty
// query lists everything.
func (r *RepositoryImpl) SearchCities(ctx context.Context, query string) ([]types.CityCost, error) {
	sql := `SELECT ` + cityColumns + ` FROM city_costs WHERE name ILIKE $1 || '%' ORDER BY name, country`
	rows, err := r.pgpool.Query(ctx, sql, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to search cities", slog.Any("error", err))
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}
	defer rows.Close()

	var cities []types.CityCost
	for rows.Next() {
		var c types.CityCost
		err := rows.Scan(
			&c.ID, &c.Name, &c.Country, &c.Currency,
			&c.AccommodationCost, &c.FoodCost, &c.TransportCost, &c.ActivitiesCost,
			&c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city rows: %w", err)
	}
	return cities, nil
}

func (r *RepositoryImpl) DeleteCity(ctx context.Context, cityID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM city_costs WHERE id = $1`, cityID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete city", slog.Any("error", err))
		return fmt.Errorf("failed to delete city: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCityNotFound
	}
	return nil
}
