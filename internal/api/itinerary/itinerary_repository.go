package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

var (
	// ErrItemNotFound is returned when an item id does not exist in the trip.
	ErrItemNotFound = errors.New("itinerary item not found")
	// ErrNoPrimaryAccommodation is returned when auto-fill runs without a
	// primary lodging to anchor to.
	ErrNoPrimaryAccommodation = errors.New("no primary accommodation saved for trip")
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	GetDays(ctx context.Context, tripID uuid.UUID) ([]types.DayItinerary, error)
	SaveDays(ctx context.Context, tripID uuid.UUID, days []types.DayItinerary) error
	SaveDay(ctx context.Context, tripID uuid.UUID, day types.DayItinerary) error
	AddItem(ctx context.Context, tripID uuid.UUID, dayNumber int, item types.ItineraryItem) error
	UpdateItem(ctx context.Context, tripID uuid.UUID, item types.ItineraryItem) error
	DeleteItem(ctx context.Context, tripID, itemID uuid.UUID) error
	GetItem(ctx context.Context, tripID, itemID uuid.UUID) (*types.ItineraryItem, int, error)
	SetRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int, cache types.RouteCache) error
	ClearRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int) error
	GetPrimaryAccommodation(ctx context.Context, tripID uuid.UUID) (*types.SavedLocation, error)
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

// GetDays loads the full day sequence with items in position order.
func (r *RepositoryImpl) GetDays(ctx context.Context, tripID uuid.UUID) ([]types.DayItinerary, error) {
	dayQuery := `
        SELECT day_number, route_distance_meters, route_duration_minutes, route_calculated_at
        FROM itinerary_days
        WHERE trip_id = $1
        ORDER BY day_number
    `
	rows, err := r.pgpool.Query(ctx, dayQuery, tripID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to get itinerary days", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get itinerary days: %w", err)
	}
	defer rows.Close()

	var days []types.DayItinerary
	index := make(map[int]int)
	for rows.Next() {
		var day types.DayItinerary
		var distance, duration *float64
		var calculatedAt *time.Time
		if err := rows.Scan(&day.DayNumber, &distance, &duration, &calculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan itinerary day: %w", err)
		}
		if calculatedAt != nil && distance != nil && duration != nil {
			day.RouteCache = &types.RouteCache{
				TotalDistanceMeters:  *distance,
				TotalDurationMinutes: *duration,
				CalculatedAt:         *calculatedAt,
			}
		}
		index[day.DayNumber] = len(days)
		days = append(days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day rows: %w", err)
	}

	itemQuery := `
        SELECT id, day_number, name, category, amount, visits,
               start_time, end_time, duration,
               lat, lon, address, place_id,
               is_auto_filled, auto_fill_source, booking_required, booking_url, is_ai_suggestion
        FROM itinerary_items
        WHERE trip_id = $1
        ORDER BY day_number, position
    `
	itemRows, err := r.pgpool.Query(ctx, itemQuery, tripID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to get itinerary items", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get itinerary items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var dayNumber int
		item, err := scanItem(itemRows, &dayNumber)
		if err != nil {
			return nil, err
		}
		i, ok := index[dayNumber]
		if !ok {
			continue
		}
		days[i].Items = append(days[i].Items, *item)
	}
	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return days, nil
}

// SaveDays replaces the whole day sequence transactionally. Route caches
// are cleared for every day: a full rewrite invalidates all of them.
func (r *RepositoryImpl) SaveDays(ctx context.Context, tripID uuid.UUID, days []types.DayItinerary) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM itinerary_days WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to clear itinerary days: %w", err)
	}
	for _, day := range days {
		if err := insertDay(ctx, tx, tripID, day); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit itinerary: %w", err)
	}
	return nil
}

// SaveDay replaces a single day's items and drops its route cache.
func (r *RepositoryImpl) SaveDay(ctx context.Context, tripID uuid.UUID, day types.DayItinerary) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM itinerary_days WHERE trip_id = $1 AND day_number = $2`, tripID, day.DayNumber); err != nil {
		return fmt.Errorf("failed to clear itinerary day: %w", err)
	}
	day.RouteCache = nil
	if err := insertDay(ctx, tx, tripID, day); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit itinerary day: %w", err)
	}
	return nil
}

func insertDay(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, day types.DayItinerary) error {
	var distance, duration *float64
	var calculatedAt *time.Time
	if day.RouteCache != nil {
		distance = &day.RouteCache.TotalDistanceMeters
		duration = &day.RouteCache.TotalDurationMinutes
		calculatedAt = &day.RouteCache.CalculatedAt
	}
	_, err := tx.Exec(ctx, `
        INSERT INTO itinerary_days (trip_id, day_number, route_distance_meters, route_duration_minutes, route_calculated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tripID, day.DayNumber, distance, duration, calculatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert itinerary day: %w", err)
	}
	for position, item := range day.Items {
		if err := insertItem(ctx, tx, tripID, day.DayNumber, position, item); err != nil {
			return err
		}
	}
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, dayNumber, position int, item types.ItineraryItem) error {
	var startTime, endTime, duration *string
	if item.TimeSlot != nil {
		if item.TimeSlot.StartTime != "" {
			startTime = &item.TimeSlot.StartTime
		}
		if item.TimeSlot.EndTime != "" {
			endTime = &item.TimeSlot.EndTime
		}
		if item.TimeSlot.Duration != "" {
			duration = &item.TimeSlot.Duration
		}
	}
	var lat, lon *float64
	var address, placeID *string
	if item.Location != nil {
		lat, lon = &item.Location.Latitude, &item.Location.Longitude
		address, placeID = &item.Location.Address, &item.Location.PlaceID
	}
	var source *uuid.UUID
	if item.AutoFillSource != uuid.Nil {
		source = &item.AutoFillSource
	}
	_, err := tx.Exec(ctx, `
        INSERT INTO itinerary_items (
            id, trip_id, day_number, position, name, category, amount, visits,
            start_time, end_time, duration, lat, lon, address, place_id,
            is_auto_filled, auto_fill_source, booking_required, booking_url, is_ai_suggestion
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
    `, item.ID, tripID, dayNumber, position, item.Name, item.Category, item.Amount, item.Visits,
		startTime, endTime, duration, lat, lon, address, placeID,
		item.IsAutoFilled, source, item.BookingRequired, item.BookingURL, item.IsAISuggestion)
	if err != nil {
		return fmt.Errorf("failed to insert itinerary item: %w", err)
	}
	return nil
}

// AddItem appends an item at the end of a day, creating the day row on
// first use, and drops the day's route cache.
func (r *RepositoryImpl) AddItem(ctx context.Context, tripID uuid.UUID, dayNumber int, item types.ItineraryItem) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
        INSERT INTO itinerary_days (trip_id, day_number) VALUES ($1, $2)
        ON CONFLICT (trip_id, day_number) DO NOTHING
    `, tripID, dayNumber); err != nil {
		return fmt.Errorf("failed to ensure itinerary day: %w", err)
	}

	var position int
	err = tx.QueryRow(ctx, `
        SELECT COALESCE(MAX(position) + 1, 0) FROM itinerary_items WHERE trip_id = $1 AND day_number = $2
    `, tripID, dayNumber).Scan(&position)
	if err != nil {
		return fmt.Errorf("failed to compute item position: %w", err)
	}

	if err := insertItem(ctx, tx, tripID, dayNumber, position, item); err != nil {
		return err
	}
	if err := clearRouteCacheTx(ctx, tx, tripID, dayNumber); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit item insert: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) UpdateItem(ctx context.Context, tripID uuid.UUID, item types.ItineraryItem) error {
	var startTime, endTime, duration *string
	if item.TimeSlot != nil {
		if item.TimeSlot.StartTime != "" {
			startTime = &item.TimeSlot.StartTime
		}
		if item.TimeSlot.EndTime != "" {
			endTime = &item.TimeSlot.EndTime
		}
		if item.TimeSlot.Duration != "" {
			duration = &item.TimeSlot.Duration
		}
	}
	var lat, lon *float64
	var address, placeID *string
	if item.Location != nil {
		lat, lon = &item.Location.Latitude, &item.Location.Longitude
		address, placeID = &item.Location.Address, &item.Location.PlaceID
	}
	var source *uuid.UUID
	if item.AutoFillSource != uuid.Nil {
		source = &item.AutoFillSource
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
        UPDATE itinerary_items
        SET name = $3, category = $4, amount = $5, visits = $6,
            start_time = $7, end_time = $8, duration = $9,
            lat = $10, lon = $11, address = $12, place_id = $13,
            is_auto_filled = $14, auto_fill_source = $15,
            booking_required = $16, booking_url = $17
        WHERE trip_id = $1 AND id = $2
    `, tripID, item.ID, item.Name, item.Category, item.Amount, item.Visits,
		startTime, endTime, duration, lat, lon, address, placeID,
		item.IsAutoFilled, source, item.BookingRequired, item.BookingURL)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update itinerary item", slog.Any("error", err))
		return fmt.Errorf("failed to update itinerary item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	var dayNumber int
	if err := tx.QueryRow(ctx,
		`SELECT day_number FROM itinerary_items WHERE trip_id = $1 AND id = $2`, tripID, item.ID).Scan(&dayNumber); err != nil {
		return fmt.Errorf("failed to resolve item day: %w", err)
	}
	if err := clearRouteCacheTx(ctx, tx, tripID, dayNumber); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit item update: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) DeleteItem(ctx context.Context, tripID, itemID uuid.UUID) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var dayNumber int
	err = tx.QueryRow(ctx,
		`DELETE FROM itinerary_items WHERE trip_id = $1 AND id = $2 RETURNING day_number`, tripID, itemID).Scan(&dayNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to delete itinerary item", slog.Any("error", err))
		return fmt.Errorf("failed to delete itinerary item: %w", err)
	}
	if err := clearRouteCacheTx(ctx, tx, tripID, dayNumber); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit item delete: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetItem(ctx context.Context, tripID, itemID uuid.UUID) (*types.ItineraryItem, int, error) {
	query := `
        SELECT id, day_number, name, category, amount, visits,
               start_time, end_time, duration,
               lat, lon, address, place_id,
               is_auto_filled, auto_fill_source, booking_required, booking_url, is_ai_suggestion
        FROM itinerary_items
        WHERE trip_id = $1 AND id = $2
    `
	rows, err := r.pgpool.Query(ctx, query, tripID, itemID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get itinerary item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, 0, fmt.Errorf("failed to get itinerary item: %w", err)
		}
		return nil, 0, ErrItemNotFound
	}
	var dayNumber int
	item, err := scanItem(rows, &dayNumber)
	if err != nil {
		return nil, 0, err
	}
	return item, dayNumber, nil
}

func (r *RepositoryImpl) SetRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int, cache types.RouteCache) error {
	_, err := r.pgpool.Exec(ctx, `
        UPDATE itinerary_days
        SET route_distance_meters = $3, route_duration_minutes = $4, route_calculated_at = $5
        WHERE trip_id = $1 AND day_number = $2
    `, tripID, dayNumber, cache.TotalDistanceMeters, cache.TotalDurationMinutes, cache.CalculatedAt)
	if err != nil {
		return fmt.Errorf("failed to set route cache: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) ClearRouteCache(ctx context.Context, tripID uuid.UUID, dayNumber int) error {
	_, err := r.pgpool.Exec(ctx, `
        UPDATE itinerary_days
        SET route_distance_meters = NULL, route_duration_minutes = NULL, route_calculated_at = NULL
        WHERE trip_id = $1 AND day_number = $2
    `, tripID, dayNumber)
	if err != nil {
		return fmt.Errorf("failed to clear route cache: %w", err)
	}
	return nil
}

func clearRouteCacheTx(ctx context.Context, tx pgx.Tx, tripID uuid.UUID, dayNumber int) error {
	_, err := tx.Exec(ctx, `
        UPDATE itinerary_days
        SET route_distance_meters = NULL, route_duration_minutes = NULL, route_calculated_at = NULL
        WHERE trip_id = $1 AND day_number = $2
    `, tripID, dayNumber)
	if err != nil {
		return fmt.Errorf("failed to clear route cache: %w", err)
	}
	return nil
}

// GetPrimaryAccommodation resolves the saved location auto-fill anchors to.
func (r *RepositoryImpl) GetPrimaryAccommodation(ctx context.Context, tripID uuid.UUID) (*types.SavedLocation, error) {
	query := `
        SELECT id, trip_id, name, category, lat, lon, address, place_id, is_primary, icon, notes, created_at
        FROM saved_locations
        WHERE trip_id = $1 AND is_primary AND category = 'ACCOMMODATION'
    `
	var loc types.SavedLocation
	err := r.pgpool.QueryRow(ctx, query, tripID).Scan(
		&loc.ID, &loc.TripID, &loc.Name, &loc.Category,
		&loc.Location.Latitude, &loc.Location.Longitude, &loc.Location.Address, &loc.Location.PlaceID,
		&loc.IsPrimary, &loc.Icon, &loc.Notes, &loc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPrimaryAccommodation
		}
		r.logger.ErrorContext(ctx, "Failed to get primary accommodation", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get primary accommodation: %w", err)
	}
	return &loc, nil
}

func scanItem(rows pgx.Rows, dayNumber *int) (*types.ItineraryItem, error) {
	var item types.ItineraryItem
	var startTime, endTime, duration *string
	var lat, lon *float64
	var address, placeID *string
	var source *uuid.UUID
	err := rows.Scan(
		&item.ID, dayNumber, &item.Name, &item.Category, &item.Amount, &item.Visits,
		&startTime, &endTime, &duration,
		&lat, &lon, &address, &placeID,
		&item.IsAutoFilled, &source, &item.BookingRequired, &item.BookingURL, &item.IsAISuggestion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan itinerary item: %w", err)
	}
	if startTime != nil || endTime != nil || duration != nil {
		item.TimeSlot = &types.TimeSlot{}
		if startTime != nil {
			item.TimeSlot.StartTime = *startTime
		}
		if endTime != nil {
			item.TimeSlot.EndTime = *endTime
		}
		if duration != nil {
			item.TimeSlot.Duration = *duration
		}
	}
	if lat != nil && lon != nil {
		item.Location = &types.GeoLocation{Latitude: *lat, Longitude: *lon}
		if address != nil {
			item.Location.Address = *address
		}
		if placeID != nil {
			item.Location.PlaceID = *placeID
		}
	}
	if source != nil {
		item.AutoFillSource = *source
	}
	return &item, nil
}
