package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/wanderbudget/go-trip-budget/internal/api/auth"
	"github.com/wanderbudget/go-trip-budget/internal/api/city"
	"github.com/wanderbudget/go-trip-budget/internal/api/export"
	"github.com/wanderbudget/go-trip-budget/internal/api/itinerary"
	"github.com/wanderbudget/go-trip-budget/internal/api/packing"
	"github.com/wanderbudget/go-trip-budget/internal/api/savedlocation"
	"github.com/wanderbudget/go-trip-budget/internal/api/trip"
)

// Config carries the handlers and middleware the router mounts.
type Config struct {
	AuthHandler          auth.Handler
	TripHandler          trip.Handler
	ItineraryHandler     itinerary.Handler
	SavedLocationHandler savedlocation.Handler
	CityHandler          city.Handler
	ExportHandler        export.Handler
	PackingHandler       packing.Handler

	AuthenticateMiddleware func(http.Handler) http.Handler
	AdminMiddleware        func(http.Handler) http.Handler
}

// SetupRouter builds the API route tree. Server-wide middleware (request
// id, logging, recoverer) is applied in main before mounting this.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong")) //nolint:errcheck
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.RegisterHandler)
			r.Post("/auth/login", cfg.AuthHandler.LoginHandler)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshHandler)
		})

		// Public city catalogue reads.
		r.Group(func(r chi.Router) {
			r.Get("/cities", cfg.CityHandler.SearchCitiesHandler)
			r.Get("/cities/{cityID}", cfg.CityHandler.GetCityHandler)
			r.Get("/cities/{cityID}/daily-budget", cfg.CityHandler.DailyBudgetHandler)
		})

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/auth/logout", cfg.AuthHandler.LogoutHandler)

			r.Route("/trips", func(r chi.Router) {
				r.Post("/", cfg.TripHandler.CreateTripHandler)
				r.Get("/", cfg.TripHandler.GetUserTripsHandler)

				r.Route("/{tripID}", func(r chi.Router) {
					r.Get("/", cfg.TripHandler.GetTripHandler)
					r.Put("/", cfg.TripHandler.UpdateTripHandler)
					r.Delete("/", cfg.TripHandler.DeleteTripHandler)

					r.Route("/itinerary", func(r chi.Router) {
						r.Get("/", cfg.ItineraryHandler.GetItineraryHandler)
						r.Post("/days/{dayNumber}/items", cfg.ItineraryHandler.AddItemHandler)
						r.Put("/items/{itemID}", cfg.ItineraryHandler.UpdateItemHandler)
						r.Delete("/items/{itemID}", cfg.ItineraryHandler.DeleteItemHandler)
						r.Post("/autofill", cfg.ItineraryHandler.AutoFillHandler)
						r.Post("/sync", cfg.ItineraryHandler.SyncHandler)
						r.Get("/disconnections", cfg.ItineraryHandler.DisconnectionsHandler)
						r.Get("/stats", cfg.ItineraryHandler.StatsHandler)
						r.Get("/route-summary", cfg.ItineraryHandler.RouteSummaryHandler)
					})

					r.Route("/locations", func(r chi.Router) {
						r.Post("/", cfg.SavedLocationHandler.CreateLocationHandler)
						r.Get("/", cfg.SavedLocationHandler.GetLocationsHandler)
						r.Put("/{locationID}", cfg.SavedLocationHandler.UpdateLocationHandler)
						r.Delete("/{locationID}", cfg.SavedLocationHandler.DeleteLocationHandler)
					})

					r.Get("/export/pdf", cfg.ExportHandler.ExportPDFHandler)
					r.Get("/export/ical", cfg.ExportHandler.ExportICalHandler)
				})
			})

			r.Post("/packing/suggest", cfg.PackingHandler.SuggestPackingListHandler)
		})

		// Admin-only city cost CMS.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(cfg.AdminMiddleware)

			r.Put("/admin/cities", cfg.CityHandler.UpsertCityHandler)
			r.Delete("/admin/cities/{cityID}", cfg.CityHandler.DeleteCityHandler)
		})
	})

	return r
}
