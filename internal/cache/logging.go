package cache

import (
	"context"
	"io"
	"strings"
	"time"

	"qrgate/internal/metrics"
	"qrgate/pkg/logging/logging"

	"go.uber.org/zap"
)

// LoggingStore wraps a Store with logging + metrics.
type LoggingStore struct {
	inner Store
}

// NewLoggingStore returns a store that logs and records metrics.
func NewLoggingStore(inner Store) *LoggingStore {
	return &LoggingStore{inner: inner}
}

func (c *LoggingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := c.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	result := "miss"
	switch {
	case err != nil:
		result = "error"
		metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
	case ok:
		result = "hit"
	}

	fields := append(keyFields(key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("qr_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("qr_cache_get", fields...)
	}

	return value, ok, err
}

func (c *LoggingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	fields := append(keyFields(key),
		zap.Int("bytes", len(value)),
		zap.Duration("ttl", ttl),
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
		logger.Error("qr_cache_set", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("qr_cache_set", fields...)
	}

	return err
}

// Close closes the wrapped store when it holds resources.
func (c *LoggingStore) Close() error {
	if cl, ok := c.inner.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// Ping forwards to the wrapped store when it supports health checks.
func (c *LoggingStore) Ping(ctx context.Context) error {
	if p, ok := c.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func keyFields(key string) []zap.Field {
	fields := []zap.Field{zap.String("cache_key", key)}
	if k, ok := parseCanonicalKey(key); ok {
		fields = append(fields,
			zap.String("preset", k.Preset),
			zap.String("hash", k.Hash),
		)
	}
	return fields
}

// Expecting: qr:<PRESET>:<HASH>
func parseCanonicalKey(key string) (CanonicalKey, bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "qr" {
		return CanonicalKey{}, false
	}
	return CanonicalKey{Preset: parts[1], Hash: parts[2]}, true
}
