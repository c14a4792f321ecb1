package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"qrgate/internal/apierror"
	"qrgate/internal/cache"
	"qrgate/internal/metrics"
	"qrgate/internal/params"
	"qrgate/internal/qrcode"
	"qrgate/internal/render"
	"qrgate/internal/tracing"
	"qrgate/pkg/logging/logging"
)

const (
	// CacheHeader marks canonical responses as HIT or MISS.
	CacheHeader = "X-QR-Cache"

	svgContentType    = "image/svg+xml; charset=utf-8"
	shortCacheControl = "public, max-age=3600"
	immutableControl  = "public, max-age=31536000, immutable"
)

// Options configures a QRHandler.
type Options struct {
	Defaults     params.Defaults
	StoreTTL     time.Duration
	StoreTimeout time.Duration
	LogMiss      bool
	VerifyOnMiss bool
}

// QRHandler holds dependencies for the QR endpoints.
type QRHandler struct {
	Store   cache.Store
	Encoder qrcode.Encoder
	Options

	group   singleflight.Group
	pending sync.WaitGroup
}

func NewQRHandler(store cache.Store, enc qrcode.Encoder, opts Options) *QRHandler {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &QRHandler{
		Store:   store,
		Encoder: enc,
		Options: opts,
	}
}

// Generate handles GET /generate. It validates the request and redirects to
// the canonical, hash-addressed URL.
func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parse(w, r)
	if !ok {
		return
	}

	key := cache.BuildCanonicalKey(p)

	q := url.Values{}
	q.Set("data", p.Data)
	q.Set("ecc", string(p.ECC))
	q.Set("q", strconv.Itoa(p.Quiet))

	w.Header().Set("Location", key.Path()+"?"+q.Encode())
	w.Header().Set("Cache-Control", shortCacheControl)
	w.WriteHeader(http.StatusFound)
}

// Render handles GET /render. It renders without touching the store.
func (h *QRHandler) Render(w http.ResponseWriter, r *http.Request) {
	p, ok := h.parse(w, r)
	if !ok {
		return
	}

	svg, err := h.render(r.Context(), p)
	if err != nil {
		logging.L(r.Context()).Warn("qr_render_failed", zap.Error(err))
		apierror.Internal(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", svgContentType)
	w.Header().Set("Cache-Control", shortCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

// Canonical handles GET /qr/{preset}/{hash}.svg.
//
// The store key is built from the path alone. Query parameters are only
// read on a miss, to regenerate the image.
func (h *QRHandler) Canonical(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	hash, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".svg")
	if !ok || !cache.IsHash(hash) {
		apierror.NotFound(w)
		return
	}

	presetID := chi.URLParam(r, "preset")
	preset, ok := params.LookupPreset(presetID)
	if !ok {
		apierror.BadRequest(w, "Invalid preset: "+presetID)
		return
	}

	key := cache.CanonicalKey{Preset: preset.ID, Hash: hash}
	etag := `"` + hash + `"`

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", immutableControl)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// ---- store lookup ----
	if entry, hit := h.lookup(ctx, key); hit {
		metrics.CacheHitsTotal.Inc()
		logger.Debug("cache_decision",
			zap.String("hash", hash),
			zap.String("preset", preset.ID),
			zap.Bool("cache_hit", true),
			zap.Duration("total_latency", time.Since(start)),
		)

		for k, v := range entry.Header {
			w.Header().Set(k, v)
		}
		w.Header().Set(CacheHeader, "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(entry.Body)
		return
	}

	// ---- miss: regenerate from the query ----
	query := r.URL.Query()
	if query.Get("data") == "" {
		apierror.BadRequest(w, "Cache miss and no data param. Use /generate?data=... to generate.")
		return
	}

	p, err := h.parseMiss(query, preset)
	if err != nil {
		writeParamError(w, err)
		return
	}

	if h.VerifyOnMiss {
		if got := cache.HashIdentity(cache.IdentityFromParams(p)); got != hash {
			logger.Warn("qr_hash_mismatch",
				zap.String("path_hash", hash),
				zap.String("query_hash", got),
			)
			apierror.Write(w, http.StatusConflict, "Query parameters do not match content hash")
			return
		}
	}

	// Concurrent misses on one path share a single render.
	v, err, _ := h.group.Do(key.String(), func() (any, error) {
		return h.render(context.WithoutCancel(ctx), p)
	})
	if err != nil {
		logger.Warn("qr_render_failed", zap.Error(err))
		apierror.Internal(w, err.Error())
		return
	}
	svg := []byte(v.(string))

	entry := cache.Entry{
		Header: map[string]string{
			"Content-Type":  svgContentType,
			"Cache-Control": immutableControl,
			"ETag":          etag,
		},
		Body: svg,
	}
	h.storeAsync(ctx, key, entry)

	metrics.CacheMissesTotal.Inc()
	if h.LogMiss {
		logger.Info("qr cache miss", zap.String("path", r.URL.Path))
	}
	logger.Debug("cache_decision",
		zap.String("hash", hash),
		zap.String("preset", preset.ID),
		zap.Bool("cache_hit", false),
		zap.Duration("total_latency", time.Since(start)),
	)

	for k, v := range entry.Header {
		w.Header().Set(k, v)
	}
	w.Header().Set(CacheHeader, "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// Wait blocks until every background store write has finished.
func (h *QRHandler) Wait() {
	h.pending.Wait()
}

func (h *QRHandler) parse(w http.ResponseWriter, r *http.Request) (params.Params, bool) {
	p, err := params.Parse(r.URL.Query(), h.Defaults)
	if err != nil {
		writeParamError(w, err)
		return params.Params{}, false
	}
	return p, true
}

// parseMiss validates the regeneration inputs of a canonical request. The
// preset comes from the path.
func (h *QRHandler) parseMiss(query url.Values, preset params.Preset) (params.Params, error) {
	data, err := params.ParseData(query, h.Defaults)
	if err != nil {
		return params.Params{}, err
	}
	ecc, quiet, err := params.ParseRendering(query, h.Defaults)
	if err != nil {
		return params.Params{}, err
	}
	return params.Params{Data: data, Preset: preset, ECC: ecc, Quiet: quiet}, nil
}

func (h *QRHandler) render(ctx context.Context, p params.Params) (string, error) {
	start := time.Now()
	defer func() { metrics.RenderSeconds.Observe(time.Since(start).Seconds()) }()

	_, span := tracing.Tracer().Start(ctx, "qr.render")
	defer span.End()
	span.SetAttributes(
		attribute.String("qr.preset", p.Preset.ID),
		attribute.String("qr.ecc", string(p.ECC)),
		attribute.Int("qr.quiet", p.Quiet),
		attribute.Int("qr.data_len", len(p.Data)),
	)

	grid, err := h.Encoder.Encode(p.Data, p.ECC)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("qr.size", grid.Size()))

	return render.SVG(grid, p.Quiet, p.Preset.Width, p.Preset.Height), nil
}

// lookup treats store errors and undecodable entries as misses.
func (h *QRHandler) lookup(ctx context.Context, key cache.CanonicalKey) (cache.Entry, bool) {
	ctx, span := tracing.Tracer().Start(ctx, "qr.cache.lookup")
	defer span.End()

	logger := logging.L(ctx)

	raw, hit, err := h.Store.Get(ctx, key.String())
	if err != nil {
		// Store is best-effort; log and treat as miss.
		logger.Warn("qr_cache_get_error", zap.Error(err))
		span.RecordError(err)
		return cache.Entry{}, false
	}
	if !hit {
		return cache.Entry{}, false
	}

	entry, err := cache.UnmarshalEntry(raw)
	if err != nil {
		logger.Warn("qr_cache_unmarshal_error", zap.Error(err))
		return cache.Entry{}, false
	}
	span.SetAttributes(attribute.Bool("qr.cache_hit", true))
	return entry, true
}

// storeAsync writes entry in a detached goroutine. The write outlives the
// request and its failure never reaches the client.
func (h *QRHandler) storeAsync(ctx context.Context, key cache.CanonicalKey, entry cache.Entry) {
	value, err := entry.Marshal()
	if err != nil {
		logging.L(ctx).Warn("qr_cache_marshal_error", zap.Error(err))
		return
	}

	bg := context.WithoutCancel(ctx)

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()

		ctx, cancel := context.WithTimeout(bg, h.StoreTimeout)
		defer cancel()

		ctx, span := tracing.Tracer().Start(ctx, "qr.cache.store")
		defer span.End()

		if err := h.Store.Set(ctx, key.String(), value, h.StoreTTL); err != nil {
			span.RecordError(err)
			logging.L(ctx).Warn("qr_cache_set_error", zap.String("key", key.String()), zap.Error(err))
		}
	}()
}

func writeParamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, params.ErrPayloadTooLarge):
		apierror.PayloadTooLarge(w, err.Error())
	default:
		apierror.BadRequest(w, err.Error())
	}
}

// etagMatches implements the weak comparison of If-None-Match. "*" is not
// honoured here: the handler cannot know a representation exists before the
// store lookup.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
