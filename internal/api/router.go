package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lyftr-ai/webhook-service/internal/api/middleware"
	"github.com/lyftr-ai/webhook-service/internal/handlers"
	"github.com/lyftr-ai/webhook-service/internal/store"
)

// maxBodyBytes caps webhook payload size well above the 4096-character
// text limit.
const maxBodyBytes = 64 * 1024

// NewRouter creates and configures the HTTP router. limiter may be nil,
// in which case no rate limiting is applied.
func NewRouter(logger zerolog.Logger, s store.MessageStore, secret string, limiter *middleware.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.MaxBodySize(maxBodyBytes))
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	// CORS for read-only consumers (dashboards)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(s, logger, secret != "")

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Health probes
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)

	// Read endpoints
	r.Get("/messages", h.ListMessages)
	r.Get("/stats", h.Stats)

	// Write endpoint: signature verification runs before any decoding
	r.Group(func(r chi.Router) {
		r.Use(middleware.VerifySignature(secret, logger))
		r.Post("/webhook", h.ReceiveWebhook)
	})

	return r
}
