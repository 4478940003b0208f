package itinerary

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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
	GetItineraryHandler(w http.ResponseWriter, r *http.Request)
	AddItemHandler(w http.ResponseWriter, r *http.Request)
	UpdateItemHandler(w http.ResponseWriter, r *http.Request)
	DeleteItemHandler(w http.ResponseWriter, r *http.Request)
	AutoFillHandler(w http.ResponseWriter, r *http.Request)
	SyncHandler(w http.ResponseWriter, r *http.Request)
	DisconnectionsHandler(w http.ResponseWriter, r *http.Request)
	StatsHandler(w http.ResponseWriter, r *http.Request)
	RouteSummaryHandler(w http.ResponseWriter, r *http.Request)
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
	case errors.Is(err, ErrItemNotFound):
		span.SetStatus(codes.Error, "Item not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Itinerary item not found")
	case errors.Is(err, ErrDayNotFound):
		span.SetStatus(codes.Error, "Day not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Itinerary day not found")
	case errors.Is(err, ErrNoPrimaryAccommodation):
		span.SetStatus(codes.Error, "No primary accommodation")
		api.ErrorResponse(w, r, http.StatusConflict, "Set a primary accommodation before auto-filling")
	case errors.Is(err, ErrInvalidSyncMode):
		span.SetStatus(codes.Error, "Invalid sync mode")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Sync mode must be forward or backward")
	default:
		span.SetStatus(codes.Error, fallback)
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}

func (h *HandlerImpl) GetItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetItinerary")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	days, err := h.service.GetItinerary(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to load itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Itinerary fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, days)
}

func (h *HandlerImpl) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "AddItem")
	defer span.End()
	l := h.logger.With(slog.String("handler", "AddItemHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}
	dayNumber, err := strconv.Atoi(chi.URLParam(r, "dayNumber"))
	if err != nil || dayNumber < 1 {
		span.SetStatus(codes.Error, "Invalid day number")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid day number")
		return
	}

	var req types.CreateItemRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "item name is required")
		return
	}

	item, err := h.service.AddItem(ctx, userID, tripID, dayNumber, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to add item", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to add item")
		return
	}

	span.SetStatus(codes.Ok, "Item added")
	api.WriteJSONResponse(w, r, http.StatusCreated, item)
}

func (h *HandlerImpl) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "UpdateItem")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateItemHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid item id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	var req types.UpdateItemRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.UpdateItem(ctx, userID, tripID, itemID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to update item", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to update item")
		return
	}

	span.SetStatus(codes.Ok, "Item updated")
	api.WriteJSONResponse(w, r, http.StatusOK, item)
}

func (h *HandlerImpl) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "DeleteItem")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid item id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	if err := h.service.DeleteItem(ctx, userID, tripID, itemID); err != nil {
		writeServiceError(w, r, span, err, "Failed to delete item")
		return
	}

	span.SetStatus(codes.Ok, "Item deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) AutoFillHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "AutoFill")
	defer span.End()
	l := h.logger.With(slog.String("handler", "AutoFillHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	days, err := h.service.AutoFill(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to auto-fill itinerary", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to auto-fill itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Itinerary auto-filled")
	api.WriteJSONResponse(w, r, http.StatusOK, days)
}

func (h *HandlerImpl) SyncHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Sync")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SyncHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	var req types.SyncRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.DayNumber < 2 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "day_number must name the later day of an adjacent pair")
		return
	}

	days, err := h.service.Sync(ctx, userID, tripID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to sync days", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to sync days")
		return
	}

	span.SetStatus(codes.Ok, "Days synced")
	api.WriteJSONResponse(w, r, http.StatusOK, days)
}

func (h *HandlerImpl) DisconnectionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Disconnections")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	reports, err := h.service.Disconnections(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to detect disconnections")
		return
	}
	if reports == nil {
		reports = []types.Disconnection{}
	}

	span.SetStatus(codes.Ok, "Disconnections computed")
	api.WriteJSONResponse(w, r, http.StatusOK, reports)
}

func (h *HandlerImpl) StatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Stats")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to compute stats")
		return
	}

	span.SetStatus(codes.Ok, "Stats computed")
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}

func (h *HandlerImpl) RouteSummaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "RouteSummary")
	defer span.End()

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	summaries, err := h.service.RouteSummaries(ctx, userID, tripID)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to compute route summaries")
		return
	}
	if summaries == nil {
		summaries = []DayRouteSummary{}
	}

	span.SetStatus(codes.Ok, "Route summaries computed")
	api.WriteJSONResponse(w, r, http.StatusOK, summaries)
}
