package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	AutoFillItemsTotal     metric.Int64Counter
	SyncOperationsTotal    metric.Int64Counter
	DisconnectionsDetected metric.Int64Counter
	PackingRequestsTotal   metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments exactly once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("WanderBudget")
		var err error
		m := &AppMetrics{}

		m.AutoFillItemsTotal, err = meter.Int64Counter(
			"autofill_items_total",
			metric.WithDescription("Total number of accommodation bookend items inserted by auto-fill"),
			metric.WithUnit("{item}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create autofill_items_total: %v", err)
		}

		m.SyncOperationsTotal, err = meter.Int64Counter(
			"day_sync_operations_total",
			metric.WithDescription("Total number of cross-day location sync operations applied"),
			metric.WithUnit("{operation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create day_sync_operations_total: %v", err)
		}

		m.DisconnectionsDetected, err = meter.Int64Counter(
			"disconnections_detected_total",
			metric.WithDescription("Total number of day-boundary disconnections reported to users"),
			metric.WithUnit("{report}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create disconnections_detected_total: %v", err)
		}

		m.PackingRequestsTotal, err = meter.Int64Counter(
			"packing_requests_total",
			metric.WithDescription("Total number of packing assistant requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create packing_requests_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized instruments. Panics if InitAppMetrics was
// never called; that is a startup wiring bug, not a runtime condition.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics.InitAppMetrics must be called before metrics.Get")
	}
	return appMetrics
}
