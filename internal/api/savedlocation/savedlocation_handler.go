package savedlocation

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
	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CreateLocationHandler(w http.ResponseWriter, r *http.Request)
	GetLocationsHandler(w http.ResponseWriter, r *http.Request)
	UpdateLocationHandler(w http.ResponseWriter, r *http.Request)
	DeleteLocationHandler(w http.ResponseWriter, r *http.Request)
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

func requestIDs(w http.ResponseWriter, r *http.Request, span trace.Span) (userID, tripID uuid.UUID, ok bool) {
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
	tripID, err = uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid trip id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return uuid.Nil, uuid.Nil, false
	}
	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("trip.id", tripID.String()),
	)
	return userID, tripID, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, fallback string) {
	span.RecordError(err)
	switch {
	case errors.Is(err, trip.ErrTripNotFound):
		span.SetStatus(codes.Error, "Trip not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Trip not found")
	case errors.Is(err, trip.ErrForbidden):
		span.SetStatus(codes.Error, "Forbidden")
		api.ErrorResponse(w, r, http.StatusForbidden, "You do not own this trip")
	case errors.Is(err, ErrLocationNotFound):
		span.SetStatus(codes.Error, "Location not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Saved location not found")
	case errors.Is(err, ErrPrimaryMustBeAccommodation):
		span.SetStatus(codes.Error, "Invalid primary")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Only an accommodation can be the primary location")
	default:
		span.SetStatus(codes.Error, fallback)
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}

func (h *HandlerImpl) CreateLocationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SavedLocationHandler").Start(r.Context(), "CreateLocation")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateLocationHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	var req types.CreateSavedLocationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "location name is required")
		return
	}

	loc, err := h.service.CreateLocation(ctx, userID, tripID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to create saved location", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to create saved location")
		return
	}

	span.SetStatus(codes.Ok, "Saved location created")
	api.WriteJSONResponse(w, r, http.StatusCreated, loc)
}

func (h *HandlerImpl) GetLocationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SavedLocationHandler").Start(r.Context(), "GetLocations")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	locations, err := h.service.GetLocations(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to list saved locations")
		return
	}
	if locations == nil {
		locations = []types.SavedLocation{}
	}

	span.SetStatus(codes.Ok, "Saved locations fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, locations)
}

func (h *HandlerImpl) UpdateLocationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SavedLocationHandler").Start(r.Context(), "UpdateLocation")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateLocationHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid location id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid location ID format")
		return
	}

	var req types.UpdateSavedLocationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := h.service.UpdateLocation(ctx, userID, tripID, locationID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to update saved location", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to update saved location")
		return
	}

	span.SetStatus(codes.Ok, "Saved location updated")
	api.WriteJSONResponse(w, r, http.StatusOK, loc)
}

func (h *HandlerImpl) DeleteLocationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SavedLocationHandler").Start(r.Context(), "DeleteLocation")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid location id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid location ID format")
		return
	}

	if err := h.service.DeleteLocation(ctx, userID, tripID, locationID); err != nil {
		writeServiceError(w, r, span, err, "Failed to delete saved location")
		return
	}

	span.SetStatus(codes.Ok, "Saved location deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
