package export

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
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ExportPDFHandler(w http.ResponseWriter, r *http.Request)
	ExportICalHandler(w http.ResponseWriter, r *http.Request)
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
	default:
		span.SetStatus(codes.Error, fallback)
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}

func (h *HandlerImpl) ExportPDFHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExportHandler").Start(r.Context(), "ExportPDF")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ExportPDFHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	data, filename, err := h.service.BuildPDF(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to build PDF", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to export trip as PDF")
		return
	}

	span.SetStatus(codes.Ok, "PDF exported")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func (h *HandlerImpl) ExportICalHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExportHandler").Start(r.Context(), "ExportICal")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ExportICalHandler"))

	userID, tripID, ok := requestIDs(w, r, span)
	if !ok {
		return
	}

	data, filename, err := h.service.BuildICal(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to build iCal", slog.Any("error", err))
		writeServiceError(w, r, span, err, "Failed to export trip as iCal")
		return
	}

	span.SetStatus(codes.Ok, "iCal exported")
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
