package packing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/wanderbudget/go-trip-budget/app/observability/metrics"
	"github.com/wanderbudget/go-trip-budget/internal/types"
)

var (
	// ErrInvalidRequest is returned when the request lacks a destination
	// or a positive duration.
	ErrInvalidRequest = errors.New("destination and a positive duration are required")
	// ErrUnparsableResponse is returned when the model output cannot be
	// decoded as a packing list.
	ErrUnparsableResponse = errors.New("assistant returned an unparsable packing list")
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	SuggestPackingList(ctx context.Context, req types.PackingRequest) (*types.PackingList, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	generator  Generator
	cache      *gocache.Cache
	appMetrics *metrics.AppMetrics
}

// NewService wires the packing assistant. appMetrics may be nil.
func NewService(generator Generator, cacheTTL time.Duration, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &ServiceImpl{
		logger:     logger,
		generator:  generator,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		appMetrics: appMetrics,
	}
}

func cacheKey(req types.PackingRequest) string {
	return fmt.Sprintf("packing:%s:%d:%s:%s",
		strings.ToLower(req.Destination), req.DurationDays,
		strings.ToLower(req.Season), strings.ToLower(strings.Join(req.Activities, ",")))
}

// SuggestPackingList asks the model for a structured packing list. Results
// are cached per destination and trip shape since the answer is stable for
// identical inputs.
func (s *ServiceImpl) SuggestPackingList(ctx context.Context, req types.PackingRequest) (*types.PackingList, error) {
	ctx, span := otel.Tracer("PackingService").Start(ctx, "SuggestPackingList", trace.WithAttributes(
		attribute.String("packing.destination", req.Destination),
		attribute.Int("packing.duration_days", req.DurationDays),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SuggestPackingList"), slog.String("destination", req.Destination))

	if req.Destination == "" || req.DurationDays < 1 {
		span.SetStatus(codes.Error, "Invalid request")
		return nil, ErrInvalidRequest
	}

	if s.appMetrics != nil {
		s.appMetrics.PackingRequestsTotal.Add(ctx, 1)
	}

	key := cacheKey(req)
	if cached, found := s.cache.Get(key); found {
		if list, ok := cached.(*types.PackingList); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "Packing list served from cache")
			return list, nil
		}
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	}
	raw, err := s.generator.GenerateContent(ctx, buildPrompt(req), config)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate packing list", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		return nil, err
	}

	list, err := parsePackingList(raw)
	if err != nil {
		l.ErrorContext(ctx, "Failed to parse packing list", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unparsable response")
		return nil, err
	}
	list.Destination = req.Destination

	s.cache.Set(key, list, gocache.DefaultExpiration)
	span.SetAttributes(attribute.Int("packing.items", len(list.Items)))
	span.SetStatus(codes.Ok, "Packing list generated")
	return list, nil
}

func buildPrompt(req types.PackingRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest a packing list for a %d-day trip to %s.", req.DurationDays, req.Destination)
	if req.Season != "" {
		fmt.Fprintf(&b, " The season is %s.", req.Season)
	}
	if len(req.Activities) > 0 {
		fmt.Fprintf(&b, " Planned activities: %s.", strings.Join(req.Activities, ", "))
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, " Additional notes: %s.", req.Notes)
	}
	b.WriteString(` Respond with JSON only, in this shape:
{"items":[{"name":"...","quantity":1,"category":"clothing|toiletries|electronics|documents|other","reason":"..."}],"tips":["..."]}`)
	return b.String()
}

// parsePackingList decodes the model output, tolerating a markdown code
// fence around the JSON.
func parsePackingList(raw string) (*types.PackingList, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var list types.PackingList
	if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	if len(list.Items) == 0 {
		return nil, ErrUnparsableResponse
	}
	for i := range list.Items {
		if list.Items[i].Quantity < 1 {
			list.Items[i].Quantity = 1
		}
	}
	return &list, nil
}
