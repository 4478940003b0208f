package city

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/internal/api"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	UpsertCityHandler(w http.ResponseWriter, r *http.Request)
	GetCityHandler(w http.ResponseWriter, r *http.Request)
	SearchCitiesHandler(w http.ResponseWriter, r *http.Request)
	DeleteCityHandler(w http.ResponseWriter, r *http.Request)
	DailyBudgetHandler(w http.ResponseWriter, r *http.Request)
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

func cityIDParam(w http.ResponseWriter, r *http.Request, span trace.Span) (uuid.UUID, bool) {
	cityID, err := uuid.Parse(chi.URLParam(r, "cityID"))
	if err != nil {
		span.SetStatus(codes.Error, "Invalid city id format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid city ID format")
		return uuid.Nil, false
	}
	return cityID, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, fallback string) {
	span.RecordError(err)
	switch {
	case errors.Is(err, ErrCityNotFound):
		span.SetStatus(codes.Error, "City not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "City not found")
	case errors.Is(err, ErrInvalidTravelStyle):
		span.SetStatus(codes.Error, "Invalid travel style")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Travel style must be budget, mid or luxury")
	default:
		span.SetStatus(codes.Error, fallback)
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}

func (h *HandlerImpl) UpsertCityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "UpsertCity")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpsertCityHandler"))

	var req types.UpsertCityCostRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Country == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "city name and country are required")
		return
	}

	city, err := h.service.UpsertCity(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to upsert city", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to upsert city")
		return
	}

	span.SetStatus(codes.Ok, "City upserted")
	api.WriteJSONResponse(w, r, http.StatusOK, city)
}

func (h *HandlerImpl) GetCityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "GetCity")
	defer span.End()

	cityID, ok := cityIDParam(w, r, span)
	if !ok {
		return
	}

	city, err := h.service.GetCity(ctx, cityID)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to get city")
		return
	}

	span.SetStatus(codes.Ok, "City fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, city)
}

func (h *HandlerImpl) SearchCitiesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "SearchCities")
	defer span.End()

	cities, err := h.service.SearchCities(ctx, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to search cities")
		return
	}
	if cities == nil {
		cities = []types.CityCost{}
	}

	span.SetStatus(codes.Ok, "Cities searched")
	api.WriteJSONResponse(w, r, http.StatusOK, cities)
}

func (h *HandlerImpl) DeleteCityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "DeleteCity")
	defer span.End()

	cityID, ok := cityIDParam(w, r, span)
	if !ok {
		return
	}

	if err := h.service.DeleteCity(ctx, cityID); err != nil {
		writeServiceError(w, r, span, err, "Failed to delete city")
		return
	}

	span.SetStatus(codes.Ok, "City deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// DailyBudgetHandler answers GET /cities/{cityID}/daily-budget?style=mid.
func (h *HandlerImpl) DailyBudgetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "DailyBudget")
	defer span.End()

	cityID, ok := cityIDParam(w, r, span)
	if !ok {
		return
	}
	style := types.TravelStyle(r.URL.Query().Get("style"))
	if style == "" {
		style = types.TravelStyleMid
	}

	budget, err := h.service.DailyBudget(ctx, cityID, style)
	if err != nil {
		writeServiceError(w, r, span, err, "Failed to compute daily budget")
		return
	}

	span.SetStatus(codes.Ok, "Daily budget computed")
	api.WriteJSONResponse(w, r, http.StatusOK, budget)
}
