package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bookline-ai/intake-agent/internal/api/router"
	"github.com/bookline-ai/intake-agent/internal/booking/calcom"
	appconfig "github.com/bookline-ai/intake-agent/internal/config"
	"github.com/bookline-ai/intake-agent/internal/contacts"
	"github.com/bookline-ai/intake-agent/internal/conversation"
	"github.com/bookline-ai/intake-agent/internal/dedupe"
	"github.com/bookline-ai/intake-agent/internal/http/handlers"
	"github.com/bookline-ai/intake-agent/internal/i18n"
	"github.com/bookline-ai/intake-agent/internal/observability/metrics"
	"github.com/bookline-ai/intake-agent/internal/timeparse"
	"github.com/bookline-ai/intake-agent/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting intake-agent API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		logger.Error("failed to load booking timezone", "error", err, "tz", cfg.BookingTimezone)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	intakeMetrics := metrics.NewIntakeMetrics(registry)

	var tracker *dedupe.Tracker
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tracker = dedupe.NewTracker(redis.NewClient(opts), 0)
		logger.Info("webhook dedupe enabled", "redis_addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, webhook dedupe disabled")
	}

	gateway, err := calcom.New(calcom.Config{
		BaseURL:     cfg.CalBaseURL,
		APIKey:      cfg.CalAPIKey,
		EventTypeID: cfg.CalEventTypeID,
		Timezone:    cfg.BookingTimezone,
		Timeout:     cfg.BookingTimeout,
		Logger:      logger.Logger,
	})
	if err != nil {
		logger.Error("failed to create cal.com client", "error", err)
		os.Exit(1)
	}

	catalog, err := i18n.NewCatalog()
	if err != nil {
		logger.Error("failed to load message catalog", "error", err)
		os.Exit(1)
	}

	controller := conversation.New(conversation.Config{
		Store:           contacts.NewStore(),
		Resolver:        timeparse.NewResolver(loc),
		Gateway:         gateway,
		Catalog:         catalog,
		Detector:        i18n.NewDetector(cfg.DefaultLanguage),
		Logger:          logger,
		Metrics:         intakeMetrics,
		BookingTimeout:  cfg.BookingTimeout,
		BookingDuration: cfg.BookingDuration,
	})

	webhookHandler := handlers.NewWebhookHandler(handlers.WebhookConfig{
		Controller:      controller,
		Tracker:         tracker,
		Catalog:         catalog,
		Metrics:         intakeMetrics,
		Logger:          logger,
		AuthToken:       cfg.TwilioAuthToken,
		DefaultLanguage: cfg.DefaultLanguage,
	})

	r := router.New(&router.Config{
		Logger:         logger,
		WebhookHandler: webhookHandler,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
