// Package router assembles the HTTP surface of the intake agent.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookline-ai/intake-agent/internal/http/handlers"
	httpmiddleware "github.com/bookline-ai/intake-agent/internal/http/middleware"
	"github.com/bookline-ai/intake-agent/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *handlers.WebhookHandler
	MetricsHandler http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.WebhookHandler.HealthCheck)
	r.Route("/webhooks/twilio", func(r chi.Router) {
		r.Post("/whatsapp", cfg.WebhookHandler.WhatsAppWebhook)
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
