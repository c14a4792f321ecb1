package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"qrgate/pkg/logging/logging"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("boom")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("boom")
}

func TestLoggingStore(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logging.WithLogger(context.Background(), zap.New(core))

	mem := NewMemoryStore(time.Minute)
	defer mem.Close()
	store := NewLoggingStore(mem)

	key := CanonicalKey{Preset: "sq250", Hash: "abc"}.String()
	if err := store.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, hit, err := store.Get(ctx, key); err != nil || !hit || string(v) != "v" {
		t.Fatalf("unexpected Get result %q %v %v", v, hit, err)
	}

	gets := logs.FilterMessage("qr_cache_get").All()
	if len(gets) != 1 {
		t.Fatalf("expected one get log, got %d", len(gets))
	}
	fields := gets[0].ContextMap()
	if fields["cache_result"] != "hit" || fields["preset"] != "sq250" || fields["hash"] != "abc" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestLoggingStoreErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logging.WithLogger(context.Background(), zap.New(core))
	store := NewLoggingStore(brokenStore{})

	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Fatalf("expected Get error to propagate")
	}
	if err := store.Set(ctx, "k", nil, time.Minute); err == nil {
		t.Fatalf("expected Set error to propagate")
	}
	if n := logs.FilterLevelExact(zap.ErrorLevel).Len(); n != 2 {
		t.Fatalf("expected 2 error logs, got %d", n)
	}
	// brokenStore has no Ping; the wrapper reports healthy.
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

type closingStore struct {
	brokenStore
	closed int
}

func (s *closingStore) Close() error {
	s.closed++
	return nil
}

func TestLoggingStoreClose(t *testing.T) {
	inner := &closingStore{}
	if err := NewLoggingStore(inner).Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if inner.closed != 1 {
		t.Fatalf("expected inner store to be closed once, got %d", inner.closed)
	}

	// Stores without Close are left alone.
	if err := NewLoggingStore(brokenStore{}).Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestNewStore(t *testing.T) {
	mem := NewStore(Config{Backend: "memory"}, nil)
	if m, ok := mem.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", mem)
	} else {
		m.Close()
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rs := NewStore(Config{Backend: "redis", Prefix: "p"}, rdb)
	if _, ok := rs.(*RedisStore); !ok {
		t.Fatalf("expected *RedisStore, got %T", rs)
	}
	if err := rs.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !mr.Exists("p:k") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}
}

func TestEntryRoundTrip(t *testing.T) {
	e := Entry{Header: map[string]string{"ETag": `"abc"`}, Body: []byte("<svg/>")}
	b, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := UnmarshalEntry(b)
	if err != nil {
		t.Fatalf("UnmarshalEntry failed: %v", err)
	}
	if string(got.Body) != "<svg/>" || got.Header["ETag"] != `"abc"` {
		t.Fatalf("unexpected entry %+v", got)
	}
	if _, err := UnmarshalEntry([]byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
