package config

import (
	"strings"
	"testing"
	"time"

	"qrgate/internal/qrcode"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	d := cfg.Defaults
	if d.Preset != "sq250" || d.ECC != qrcode.LevelM || d.Quiet != 4 || d.MaxDataLen != 2048 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if cfg.LogMiss {
		t.Fatalf("LOG_MISS must default to false")
	}
	if !cfg.VerifyOnMiss {
		t.Fatalf("VERIFY_ON_MISS must default to true")
	}
	if cfg.CacheBackend != "memory" || cfg.Port != "8080" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.CacheTTL != 8760*time.Hour {
		t.Fatalf("unexpected cache ttl %v", cfg.CacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEFAULT_PRESET", "sq125")
	t.Setenv("DEFAULT_ECC", "h")
	t.Setenv("DEFAULT_QUIET", "2")
	t.Setenv("MAX_DATA_LEN", "3")
	t.Setenv("LOG_MISS", "true")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("STORE_TIMEOUT", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	d := cfg.Defaults
	if d.Preset != "sq125" || d.ECC != qrcode.LevelH || d.Quiet != 2 || d.MaxDataLen != 3 {
		t.Fatalf("overrides not applied: %+v", d)
	}
	if !cfg.LogMiss || cfg.CacheBackend != "redis" || cfg.StoreTimeout != 250*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		env, value, want string
	}{
		{"DEFAULT_PRESET", "sq999", "DEFAULT_PRESET"},
		{"DEFAULT_ECC", "Z", "DEFAULT_ECC"},
		{"DEFAULT_QUIET", "17", "DEFAULT_QUIET"},
		{"DEFAULT_QUIET", "4.5", "DEFAULT_QUIET"},
		{"MAX_DATA_LEN", "0", "MAX_DATA_LEN"},
		{"LOG_MISS", "maybe", "LOG_MISS"},
		{"CACHE_BACKEND", "memcached", "CACHE_BACKEND"},
		{"CACHE_TTL", "forever", "CACHE_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not name %s", err, tt.want)
			}
		})
	}
}
