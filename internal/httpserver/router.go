package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"qrgate/internal/apierror"
	"qrgate/internal/cache"
	"qrgate/internal/handlers"
	"qrgate/internal/metrics"
	"qrgate/internal/middleware"
	"qrgate/pkg/logging/logging"
)

// Config carries the router settings that do not belong to a handler.
type Config struct {
	RequestTimeout time.Duration
	// Ready backs /readyz. Nil means always ready.
	Ready cache.Pinger
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, qrHandler *handlers.QRHandler, cfg Config) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierror.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierror.NotFound(w)
	})

	// routes
	r.Get("/generate", qrHandler.Generate)
	r.Get("/render", qrHandler.Render)
	r.Get("/qr/{preset}/{file}", qrHandler.Canonical)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", readiness(cfg.Ready))

	r.Handle("/metrics", metrics.Handler())
}

func readiness(p cache.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logging.L(ctx).Warn("readiness_check_failed", zap.Error(err))
				apierror.Write(w, http.StatusServiceUnavailable, "cache store unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
