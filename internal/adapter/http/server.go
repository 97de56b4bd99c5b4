// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"log/slog"
	"net/http"

	"foodfollow/internal/app"
	"foodfollow/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config lists the collaborators of a Server.
type Config struct {
	Catalog    *app.CatalogService
	Meals      *app.MealService
	Charts     *app.ChartsService
	Scanner    *app.ScanService
	Workspaces *app.Workspaces

	// Verifier checks bearer ID tokens. Nil disables authentication and every
	// request acts as domain.LocalUser.
	Verifier TokenVerifier

	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics. Nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	catalog    *app.CatalogService
	meals      *app.MealService
	charts     *app.ChartsService
	scanner    *app.ScanService
	workspaces *app.Workspaces
	verifier   TokenVerifier
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	log        *slog.Logger
}

// New creates a Server wired to the given application services.
func New(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Discard()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		catalog:    cfg.Catalog,
		meals:      cfg.Meals,
		charts:     cfg.Charts,
		scanner:    cfg.Scanner,
		workspaces: cfg.Workspaces,
		verifier:   cfg.Verifier,
		metrics:    cfg.Metrics,
		gatherer:   cfg.Gatherer,
		log:        cfg.Logger,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(withNoCache)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/foods/search", s.handleFoodSearch)
		r.Get("/foods/barcode/{code}", s.handleFoodBarcode)

		r.Get("/search", s.handleSearchGet)
		r.Put("/search", s.handleSearchPut)
		r.Delete("/search", s.handleSearchDelete)
		r.Get("/search/events", s.handleSearchEvents)

		r.Get("/draft", s.handleDraftGet)
		r.Put("/draft/category", s.handleDraftCategory)
		r.Post("/draft/foods", s.handleDraftAddFood)
		r.Delete("/draft/foods/{id}", s.handleDraftRemoveFood)
		r.Post("/draft/scan", s.handleDraftScan)
		r.Post("/draft/resume", s.handleDraftResume)
		r.Post("/draft/save", s.handleDraftSave)

		r.Get("/meals", s.handleMealsList)
		r.Post("/meals", s.handleMealsCreate)
		r.Get("/meals/{id}", s.handleMealGet)
		r.Delete("/meals/{id}", s.handleMealDelete)
		r.Post("/meals/{id}/foods", s.handleMealAddFood)

		r.Get("/days", s.handleDays)
		r.Get("/charts/daily", s.handleChartsDaily)
	})

	return r
}
