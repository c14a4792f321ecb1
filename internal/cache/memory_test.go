package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_TTL(t *testing.T) {
	c := NewMemoryStore(10 * time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	key := "qr:sq250:abc"
	val := []byte("<svg/>")

	if err := c.Set(ctx, key, val, 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, hit, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatalf("expected hit immediately after Set")
	}
	if string(got) != "<svg/>" {
		t.Fatalf("expected '<svg/>', got %q", got)
	}

	// Wait for TTL to expire
	time.Sleep(30 * time.Millisecond)

	_, hit, err = c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after TTL failed: %v", err)
	}
	if hit {
		t.Fatalf("expected miss after TTL expiry")
	}
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	c := NewMemoryStore(time.Minute)
	defer c.Close()

	ctx := context.Background()
	buf := []byte("abc")
	if err := c.Set(ctx, "k", buf, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	buf[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("store must not alias caller buffer, got %q", got)
	}
}

func TestMemoryStore_NonPositiveTTLDeletes(t *testing.T) {
	c := NewMemoryStore(time.Minute)
	defer c.Close()

	ctx := context.Background()
	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	_ = c.Set(ctx, "k", []byte("v"), 0)

	if c.Len() != 0 {
		t.Fatalf("expected key to be removed, len=%d", c.Len())
	}
}
