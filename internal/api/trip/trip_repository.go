package trip

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

// ErrTripNotFound is returned when a trip id does not exist.
var ErrTripNotFound = errors.New("trip not found")

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CreateTrip(ctx context.Context, trip types.Trip) error
	GetTrip(ctx context.Context, tripID uuid.UUID) (*types.Trip, error)
	GetTripsByUser(ctx context.Context, userID uuid.UUID) ([]*types.Trip, error)
	UpdateTrip(ctx context.Context, trip types.Trip) error
	DeleteTrip(ctx context.Context, tripID uuid.UUID) error
	GetTripOwner(ctx context.Context, tripID uuid.UUID) (uuid.UUID, error)
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

func (r *RepositoryImpl) CreateTrip(ctx context.Context, trip types.Trip) error {
	query := `
        INSERT INTO trips (id, user_id, name, destination, start_date, end_date, currency, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.pgpool.Exec(ctx, query,
		trip.ID, trip.UserID, trip.Name, trip.Destination, trip.StartDate, trip.EndDate,
		trip.Currency, trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create trip", slog.Any("error", err))
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetTrip(ctx context.Context, tripID uuid.UUID) (*types.Trip, error) {
	query := `
        SELECT id, user_id, name, destination, start_date, end_date, currency, created_at, updated_at
        FROM trips
        WHERE id = $1
    `
	var t types.Trip
	err := r.pgpool.QueryRow(ctx, query, tripID).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate,
		&t.Currency, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get trip", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &t, nil
}

func (r *RepositoryImpl) GetTripsByUser(ctx context.Context, userID uuid.UUID) ([]*types.Trip, error) {
	query := `
        SELECT id, user_id, name, destination, start_date, end_date, currency, created_at, updated_at
        FROM trips
        WHERE user_id = $1
        ORDER BY start_date
    `
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to get trips", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get trips: %w", err)
	}
	defer rows.Close()

	var trips []*types.Trip
	for rows.Next() {
		var t types.Trip
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate,
			&t.Currency, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}
	return trips, nil
}

func (r *RepositoryImpl) UpdateTrip(ctx context.Context, trip types.Trip) error {
	query := `
        UPDATE trips
        SET name = $2, destination = $3, start_date = $4, end_date = $5, currency = $6, updated_at = now()
        WHERE id = $1
    `
	tag, err := r.pgpool.Exec(ctx, query,
		trip.ID, trip.Name, trip.Destination, trip.StartDate, trip.EndDate, trip.Currency,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update trip", slog.Any("error", err))
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteTrip(ctx context.Context, tripID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete trip", slog.Any("error", err))
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

// GetTripOwner is the cheap ownership lookup used by every service that
// gates an operation on "does this trip belong to this user".
func (r *RepositoryImpl) GetTripOwner(ctx context.Context, tripID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.pgpool.QueryRow(ctx, `SELECT user_id FROM trips WHERE id = $1`, tripID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrTripNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get trip owner", slog.Any("error", err))
		return uuid.Nil, fmt.Errorf("failed to get trip owner: %w", err)
	}
	return ownerID, nil
}
