package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	database "github.com/wanderbudget/go-trip-budget/app/db"
	appLogger "github.com/wanderbudget/go-trip-budget/app/logger"
	"github.com/wanderbudget/go-trip-budget/app/observability/metrics"
	"github.com/wanderbudget/go-trip-budget/app/tracer"
	"github.com/wanderbudget/go-trip-budget/config"
	"github.com/wanderbudget/go-trip-budget/internal/api/auth"
	"github.com/wanderbudget/go-trip-budget/internal/api/city"
	"github.com/wanderbudget/go-trip-budget/internal/api/export"
	"github.com/wanderbudget/go-trip-budget/internal/api/itinerary"
	"github.com/wanderbudget/go-trip-budget/internal/api/packing"
	"github.com/wanderbudget/go-trip-budget/internal/api/savedlocation"
	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
	"github.com/wanderbudget/go-trip-budget/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	metricsHandler, err := tracer.InitTracingAndMetrics(logger)
	if err != nil {
		logger.Error("Failed to initialize tracing and metrics", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.InitAppMetrics()
	appMetrics := metrics.Get()

	// --- Database ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Dependency Injection ---
	authRepo := auth.NewRepository(pool, logger)
	authService := auth.NewService(authRepo, cfg.JWT, logger)
	authHandler := auth.NewHandler(authService, logger)

	tripRepo := trip.NewRepository(pool, logger)
	itineraryRepo := itinerary.NewRepository(pool, logger)
	locationRepo := savedlocation.NewRepository(pool, logger)

	tripService := trip.NewService(tripRepo, itineraryRepo, locationRepo, logger)
	tripHandler := trip.NewHandler(tripService, logger)

	itineraryService := itinerary.NewService(itineraryRepo, tripRepo, cfg.Cache.RouteTTL, appMetrics, logger)
	itineraryHandler := itinerary.NewHandler(itineraryService, logger)

	locationService := savedlocation.NewService(locationRepo, tripRepo, itineraryRepo, logger)
	locationHandler := savedlocation.NewHandler(locationService, logger)

	cityRepo := city.NewRepository(pool, logger)
	cityService := city.NewService(cityRepo, cfg.Cache.CityTTL, logger)
	cityHandler := city.NewHandler(cityService, logger)

	exportService := export.NewService(tripRepo, itineraryRepo, logger)
	exportHandler := export.NewHandler(exportService, logger)

	aiClient, err := packing.NewAIClient(ctx, cfg.Gemini.Model)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", slog.Any("error", err))
		os.Exit(1)
	}
	packingService := packing.NewService(aiClient, cfg.Cache.CityTTL, appMetrics, logger)
	packingHandler := packing.NewHandler(packingService, logger)

	// --- Router ---
	apiRouter := router.SetupRouter(&router.Config{
		AuthHandler:            authHandler,
		TripHandler:            tripHandler,
		ItineraryHandler:       itineraryHandler,
		SavedLocationHandler:   locationHandler,
		CityHandler:            cityHandler,
		ExportHandler:          exportHandler,
		PackingHandler:         packingHandler,
		AuthenticateMiddleware: auth.Authenticate(logger, cfg.JWT),
		AdminMiddleware:        auth.RequireRole(logger, "admin"),
	})

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", apiRouter)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	metricsSrv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.MetricsPort),
		Handler:     metricsHandler,
		ReadTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting metrics server", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()

		logger.Info("Shutdown signal received, starting graceful shutdown...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server graceful shutdown failed", slog.Any("error", err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
