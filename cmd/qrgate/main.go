package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"qrgate/internal/cache"
	"qrgate/internal/config"
	"qrgate/internal/handlers"
	"qrgate/internal/httpserver"
	"qrgate/internal/metrics"
	"qrgate/internal/qrcode"
	"qrgate/internal/tracing"
	"qrgate/pkg/logging/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("qrgate exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("default_preset", cfg.Defaults.Preset),
		zap.String("default_ecc", string(cfg.Defaults.ECC)),
		zap.Int("default_quiet", cfg.Defaults.Quiet),
		zap.Int("max_data_len", cfg.Defaults.MaxDataLen),
		zap.Bool("log_miss", cfg.LogMiss),
		zap.Bool("verify_on_miss", cfg.VerifyOnMiss),
	)

	// ----- Tracing -----
	shutdownTracing, err := tracing.Setup(cfg.TraceExporter)
	if err != nil {
		return err
	}

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Cache store -----
	store := cache.NewLoggingStore(cache.NewStore(cache.Config{
		Backend: cfg.CacheBackend,
		Prefix:  cfg.CachePrefix,
	}, redisClient))

	// ----- Handlers -----
	qrHandler := handlers.NewQRHandler(store, qrcode.NewEncoder(), handlers.Options{
		Defaults:     cfg.Defaults,
		StoreTTL:     cfg.CacheTTL,
		StoreTimeout: cfg.StoreTimeout,
		LogMiss:      cfg.LogMiss,
		VerifyOnMiss: cfg.VerifyOnMiss,
	})

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, qrHandler, httpserver.Config{
		RequestTimeout: cfg.RequestTimeout,
		Ready:          store,
	})

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting qrgate",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		logger.Error("server error", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	// Let in-flight cache writes land before the store goes away.
	qrHandler.Wait()

	// Stops the memory store's sweeper; the Redis client is closed by its defer.
	if err := store.Close(); err != nil {
		logger.Warn("cache store close error", zap.Error(err))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown error", zap.Error(err))
	}

	logger.Info("server shutdown complete")
	return nil
}
