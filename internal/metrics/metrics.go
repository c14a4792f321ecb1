package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: canonical requests served from the store.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_cache_hits_total",
			Help: "Total number of canonical QR requests served from the cache store.",
		},
	)

	// Counter: canonical requests that had to be regenerated.
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_cache_misses_total",
			Help: "Total number of canonical QR requests regenerated on a cache miss.",
		},
	)

	// Counter: store failures by operation (get | set).
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_cache_store_errors_total",
			Help: "Total number of cache store errors.",
		},
		[]string{"op"},
	)

	// Histogram: matrix encoding plus SVG rendering.
	RenderSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qr_render_seconds",
			Help:    "Time spent encoding and rendering a QR code.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	// Histogram: HTTP latency in seconds.
	HTTPLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrgate_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"route", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		CacheErrorsTotal,
		RenderSeconds,
		HTTPLatencySeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures latency for each HTTP request.
// Requests are labelled with the chi route pattern, not the raw path, so
// canonical hashes do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		HTTPLatencySeconds.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.statusCode = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}
