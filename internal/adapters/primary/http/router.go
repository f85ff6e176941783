package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/lorrc/sales-analytics-backend/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/sales-analytics-backend/internal/core/errors"
)

// RouterConfig selects the optional parts of the HTTP surface.
type RouterConfig struct {
	CORSAllowedOrigins []string
	CORSMaxAge         int

	// RateLimiter is applied to /api routes when set.
	RateLimiter *mw.RateLimiter

	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler       http.Handler
	MetricsPath          string
	MetricsSlowThreshold time.Duration
}

// Handlers groups the primary adapters the router dispatches to.
type Handlers struct {
	ReferenceData *ReferenceDataHandler
	Dashboard     *DashboardHandler
	Health        *HealthHandler
	// WebSocket is optional.
	WebSocket http.Handler
}

// NewRouter builds the chi router for the whole service.
func NewRouter(h Handlers, cfg RouterConfig, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	if cfg.MetricsHandler != nil {
		r.Use(mw.Metrics(logger, cfg.MetricsSlowThreshold))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           cfg.CORSMaxAge,
	}))

	// Set before any Route call so subrouters inherit it.
	errorHandler := NewErrorHandler(logger)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.Handle(w, r, apperrors.NewNotFoundError(apperrors.ErrNotFound, "Resource not found"))
	})

	// Probe paths stay outside /api and are never rate limited.
	r.Get("/health", h.Health.HandleHealth)
	r.Get("/health/live", h.Health.HandleLiveness)
	r.Get("/health/ready", h.Health.HandleReadiness)

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, cfg.MetricsHandler)
	}

	if h.WebSocket != nil {
		r.Method(http.MethodGet, "/ws", h.WebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}

		r.Get("/datasets", h.ReferenceData.HandleListDatasets)
		r.Route("/data", func(r chi.Router) {
			h.ReferenceData.RegisterRoutes(r)
			h.Dashboard.RegisterRoutes(r)
		})
	})

	return r
}
