package savedlocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// ErrLocationNotFound is returned when a saved location id does not exist
// in the trip.
var ErrLocationNotFound = errors.New("saved location not found")

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CreateLocation(ctx context.Context, loc types.SavedLocation) error
	GetLocation(ctx context.Context, tripID, locationID uuid.UUID) (*types.SavedLocation, error)
	GetLocationsByTrip(ctx context.Context, tripID uuid.UUID) ([]types.SavedLocation, error)
	UpdateLocation(ctx context.Context, loc types.SavedLocation) error
	DeleteLocation(ctx context.Context, tripID, locationID uuid.UUID) error
	ClearPrimary(ctx context.Context, tripID uuid.UUID) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewRepository(pgpool *pgxpool.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

const locationColumns = `id, trip_id, name, category, lat, lon, address, place_id, is_primary, icon, notes, created_at`

func (r *RepositoryImpl) CreateLocation(ctx context.Context, loc types.SavedLocation) error {
	query := `
        INSERT INTO saved_locations (id, trip_id, name, category, lat, lon, address, place_id, is_primary, icon, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err := r.pgpool.Exec(ctx, query,
		loc.ID, loc.TripID, loc.Name, loc.Category,
		loc.Location.Latitude, loc.Location.Longitude, loc.Location.Address, loc.Location.PlaceID,
		loc.IsPrimary, loc.Icon, loc.Notes, loc.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create saved location", slog.Any("error", err))
		return fmt.Errorf("failed to create saved location: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetLocation(ctx context.Context, tripID, locationID uuid.UUID) (*types.SavedLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM saved_locations WHERE trip_id = $1 AND id = $2`
	var loc types.SavedLocation
	err := r.pgpool.QueryRow(ctx, query, tripID, locationID).Scan(
		&loc.ID, &loc.TripID, &loc.Name, &loc.Category,
		&loc.Location.Latitude, &loc.Location.Longitude, &loc.Location.Address, &loc.Location.PlaceID,
		&loc.IsPrimary, &loc.Icon, &loc.Notes, &loc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get saved location", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get saved location: %w", err)
	}
	return &loc, nil
}

func (r *RepositoryImpl) GetLocationsByTrip(ctx context.Context, tripID uuid.UUID) ([]types.SavedLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM saved_locations WHERE trip_id = $1 ORDER BY created_at`
	rows, err := r.pgpool.Query(ctx, query, tripID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list saved locations", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list saved locations: %w", err)
	}
	defer rows.Close()

	var locations []types.SavedLocation
	for rows.Next() {
		var loc types.SavedLocation
		err := rows.Scan(
			&loc.ID, &loc.TripID, &loc.Name, &loc.Category,
			&loc.Location.Latitude, &loc.Location.Longitude, &loc.Location.Address, &loc.Location.PlaceID,
			&loc.IsPrimary, &loc.Icon, &loc.Notes, &loc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved location rows: %w", err)
	}
	return locations, nil
}

func (r *RepositoryImpl) UpdateLocation(ctx context.Context, loc types.SavedLocation) error {
	query := `
        UPDATE saved_locations
        SET name = $3, category = $4, lat = $5, lon = $6, address = $7, place_id = $8,
            is_primary = $9, icon = $10, notes = $11
        WHERE trip_id = $1 AND id = $2
    `
	tag, err := r.pgpool.Exec(ctx, query,
		loc.TripID, loc.ID, loc.Name, loc.Category,
		loc.Location.Latitude, loc.Location.Longitude, loc.Location.Address, loc.Location.PlaceID,
		loc.IsPrimary, loc.Icon, loc.Notes,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update saved location", slog.Any("error", err))
		return fmt.Errorf("failed to update saved location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteLocation(ctx context.Context, tripID, locationID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM saved_locations WHERE trip_id = $1 AND id = $2`, tripID, locationID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete saved location", slog.Any("error", err))
		return fmt.Errorf("failed to delete saved location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// ClearPrimary demotes the trip's current primary accommodation, if any.
// Runs before promoting another location so the partial unique index never
// rejects the swap.
func (r *RepositoryImpl) ClearPrimary(ctx context.Context, tripID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, `
        UPDATE saved_locations
        SET is_primary = FALSE
        WHERE trip_id = $1 AND is_primary AND category = 'ACCOMMODATION'
    `, tripID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to clear primary accommodation", slog.Any("error", err))
		return fmt.Errorf("failed to clear primary accommodation: %w", err)
	}
	return nil
}
