package trip

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/internal/api"
	"github.com/wanderbudget/go-trip-budget/internal/api/auth"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CreateTripHandler(w http.ResponseWriter, r *http.Request)
	GetTripHandler(w http.ResponseWriter, r *http.Request)
	GetUserTripsHandler(w http.ResponseWriter, r *http.Request)
	UpdateTripHandler(w http.ResponseWriter, r *http.Request)
	DeleteTripHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// requestIDs extracts the authenticated user id and the tripID URL param.
// Writes the error response itself and reports ok=false on failure.
func requestIDs(w http.ResponseWriter, r *http.Request, span trace.Span, needTrip bool) (userID, tripID uuid.UUID, ok bool) {
	userIDStr, found := auth.GetUserIDFromContext(r.Context())
	if !found || userIDStr == "" {
		span.SetStatus(codes.Error, "Unauthorized - user id missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid user id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, uuid.Nil, false
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	if !needTrip {
		return userID, uuid.Nil, true
	}
	tripID, err = uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid trip id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return uuid.Nil, uuid.Nil, false
	}
	span.SetAttributes(attribute.String("trip.id", tripID.String()))
	return userID, tripID, true
}

// writeServiceError maps common service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, fallback string) {
	span.RecordError(err)
	switch {
	case errors.Is(err, ErrTripNotFound):
		span.SetStatus(codes.Error, "Trip not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Trip not found")
	case errors.Is(err, ErrForbidden):
		span.SetStatus(codes.Error, "Forbidden")
		api.ErrorResponse(w, r, http.StatusForbidden, "You do not own this trip")
	default:
		span.SetStatus(codes.Error, fallback)
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}

func (h *HandlerImpl) CreateTripHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "CreateTrip")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateTripHandler"))

	userID, _, ok := requestIDs(w, r, span, false)
	if !ok {
		return
	}

	var req types.CreateTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "trip name is required")
		return
	}

	t, err := h.service.CreateTrip(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to create trip", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to create trip")
		return
	}

	span.SetStatus(codes.Ok, "Trip created")
	api.WriteJSONResponse(w, r, http.StatusCreated, t)
}

func (h *HandlerImpl) GetTripHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "GetTrip")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetTripHandler"))

	userID, tripID, ok := requestIDs(w, r, span, true)
	if !ok {
		return
	}

	t, err := h.service.GetTrip(ctx, userID, tripID)
	if err != nil {
		l.WarnContext(ctx, "Service failed to get trip", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to get trip")
		return
	}

	span.SetStatus(codes.Ok, "Trip fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, t)
}

func (h *HandlerImpl) GetUserTripsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "GetUserTrips")
	defer span.End()

	userID, _, ok := requestIDs(w, r, span, false)
	if !ok {
		return
	}

	trips, err := h.service.GetUserTrips(ctx, userID)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to list trips")
		return
	}

	span.SetStatus(codes.Ok, "Trips fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, trips)
}

func (h *HandlerImpl) UpdateTripHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "UpdateTrip")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateTripHandler"))

	userID, tripID, ok := requestIDs(w, r, span, true)
	if !ok {
		return
	}

	var req types.UpdateTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.UpdateTrip(ctx, userID, tripID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to update trip", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to update trip")
		return
	}

	span.SetStatus(codes.Ok, "Trip updated")
	api.WriteJSONResponse(w, r, http.StatusOK, t)
}

func (h *HandlerImpl) DeleteTripHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "DeleteTrip")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span, true)
	if !ok {
		return
	}

	if err := h.service.DeleteTrip(ctx, userID, tripID); err != nil {
		writeServiceError(w, r, span, err, "Failed to delete trip")
		return
	}

	span.SetStatus(codes.Ok, "Trip deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
