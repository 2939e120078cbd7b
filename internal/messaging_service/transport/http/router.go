package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig collects what NewRouter mounts.
type RouterConfig struct {
	Messages *MessageHandler
	Webhooks *WebhookHandler
	// WebhookMiddleware runs before the webhook handlers, e.g. signature checks.
	WebhookMiddleware []func(http.Handler) http.Handler
	Health            Pinger
	RequestTimeout    time.Duration
	Logger            *slog.Logger
}

// NewRouter builds the service's HTTP routes.
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	r.Use(chi_middleware.RealIP)
	r.Use(chi_middleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)
	r.Use(chi_middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", healthHandler(cfg.Health, cfg.Logger))

	r.Route("/api/v1", func(r chi.Router) {
		cfg.Messages.RegisterRoutes(r)
	})
	r.Route("/webhooks/sms", func(r chi.Router) {
		r.Use(cfg.WebhookMiddleware...)
		cfg.Webhooks.RegisterRoutes(r)
	})
	return r
}

func healthHandler(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.WarnContext(ctx, "Health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
