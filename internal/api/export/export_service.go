package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderbudget/go-trip-budget/internal/api/itinerary"
	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	BuildPDF(ctx context.Context, userID, tripID uuid.UUID) ([]byte, string, error)
	BuildICal(ctx context.Context, userID, tripID uuid.UUID) ([]byte, string, error)
}

// ServiceImpl renders a trip as a budget PDF or an iCalendar feed.
type ServiceImpl struct {
	logger        *slog.Logger
	tripRepo      trip.Repository
	itineraryRepo itinerary.Repository
}

func NewService(tripRepo trip.Repository, itineraryRepo itinerary.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:        logger,
		tripRepo:      tripRepo,
		itineraryRepo: itineraryRepo,
	}
}

func (s *ServiceImpl) loadTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, []types.DayItinerary, error) {
	t, err := s.tripRepo.GetTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	if t.UserID != userID {
		return nil, nil, trip.ErrForbidden
	}
	days, err := s.itineraryRepo.GetDays(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	return t, days, nil
}

// BuildPDF renders a per-day budget breakdown with category subtotals and
// a grand total, all in the trip's currency.
func (s *ServiceImpl) BuildPDF(ctx context.Context, userID, tripID uuid.UUID) ([]byte, string, error) {
	ctx, span := otel.Tracer("ExportService").Start(ctx, "BuildPDF", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "BuildPDF"), slog.String("tripID", tripID.String()))

	t, days, err := s.loadTrip(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, t.Name)
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("%s, %s - %s",
		t.Destination, t.StartDate.Format("Jan 2 2006"), t.EndDate.Format("Jan 2 2006")))
	pdf.Ln(12)

	categoryTotals := make(map[types.ItemCategory]float64)
	var grandTotal float64

	for _, day := range days {
		if len(day.Items) == 0 {
			continue
		}
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, fmt.Sprintf("Day %d", day.DayNumber))
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		var dayTotal float64
		for _, item := range day.Items {
			cost := item.Amount * float64(item.Visits)
			dayTotal += cost
			categoryTotals[item.Category] += cost
			grandTotal += cost

			line := item.Name
			if item.TimeSlot != nil && item.TimeSlot.StartTime != "" {
				line = item.TimeSlot.StartTime + "  " + line
			}
			pdf.Cell(130, 6, line)
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f %s", cost, t.Currency), "", 0, "R", false, 0, "")
			pdf.Ln(6)
		}
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(170, 6, fmt.Sprintf("Day total: %.2f %s", dayTotal, t.Currency), "", 0, "R", false, 0, "")
		pdf.Ln(10)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Totals by category")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, cat := range sortedCategories(categoryTotals) {
		pdf.Cell(130, 6, string(cat))
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f %s", categoryTotals[cat], t.Currency), "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(170, 8, fmt.Sprintf("Trip total: %.2f %s", grandTotal, t.Currency), "T", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		l.ErrorContext(ctx, "Failed to render PDF", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to render PDF")
		return nil, "", fmt.Errorf("failed to render PDF: %w", err)
	}

	span.SetStatus(codes.Ok, "PDF rendered")
	return buf.Bytes(), exportFilename(t.Name, "pdf"), nil
}

func sortedCategories(totals map[types.ItemCategory]float64) []types.ItemCategory {
	cats := make([]types.ItemCategory, 0, len(totals))
	for cat := range totals {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// BuildICal emits one VEVENT per itinerary item with a start time, dated
// from the trip's start date plus the day offset.
func (s *ServiceImpl) BuildICal(ctx context.Context, userID, tripID uuid.UUID) ([]byte, string, error) {
	ctx, span := otel.Tracer("ExportService").Start(ctx, "BuildICal", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	t, days, err := s.loadTrip(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return nil, "", err
	}

	data := renderICal(t, days, time.Now().UTC())
	span.SetStatus(codes.Ok, "iCal rendered")
	return data, exportFilename(t.Name, "ics"), nil
}

func exportFilename(tripName, ext string) string {
	safe := make([]rune, 0, len(tripName))
	for _, r := range tripName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			safe = append(safe, r)
		case r == ' ', r == '-', r == '_':
			safe = append(safe, '-')
		}
	}
	if len(safe) == 0 {
		safe = []rune("trip")
	}
	return string(safe) + "." + ext
}
