package packing

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/wanderbudget/go-trip-budget/internal/api"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	SuggestPackingListHandler(w http.ResponseWriter, r *http.Request)
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

func (h *HandlerImpl) SuggestPackingListHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PackingHandler").Start(r.Context(), "SuggestPackingList")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SuggestPackingListHandler"))

	var req types.PackingRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.service.SuggestPackingList(ctx, req)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrInvalidRequest):
			span.SetStatus(codes.Error, "Invalid request")
			api.ErrorResponse(w, r, http.StatusBadRequest, "Destination and a positive duration are required")
		case errors.Is(err, ErrUnparsableResponse):
			span.SetStatus(codes.Error, "Unparsable response")
			api.ErrorResponse(w, r, http.StatusBadGateway, "Assistant returned an unusable answer, try again")
		default:
			l.ErrorContext(ctx, "Service failed to generate packing list", slog.Any("error", err))
			span.SetStatus(codes.Error, "Generation failed")
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate packing list")
		}
		return
	}

	span.SetStatus(codes.Ok, "Packing list generated")
	api.WriteJSONResponse(w, r, http.StatusOK, list)
}
