// Package config loads qrgate settings from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"qrgate/internal/params"
	"qrgate/internal/qrcode"
)

// Config is the typed runtime configuration. It is loaded once at startup
// and passed explicitly to the components that need it.
type Config struct {
	Port           string
	Defaults       params.Defaults
	LogMiss        bool
	VerifyOnMiss   bool
	CacheBackend   string // "memory" or "redis"
	RedisAddr      string
	CachePrefix    string
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	StoreTimeout   time.Duration
	TraceExporter  string
}

// Load reads the environment. Unset variables take their documented
// defaults; malformed ones are an error.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("default_preset", "sq250")
	v.SetDefault("default_ecc", "M")
	v.SetDefault("default_quiet", "4")
	v.SetDefault("max_data_len", "2048")
	v.SetDefault("log_miss", "false")
	v.SetDefault("verify_on_miss", "true")
	v.SetDefault("cache_backend", "memory")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache_prefix", "qrgate")
	v.SetDefault("cache_ttl", "8760h")
	v.SetDefault("request_timeout", "15s")
	v.SetDefault("store_timeout", "5s")
	v.SetDefault("trace_exporter", "none")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.Port = v.GetString("port")
	cfg.RedisAddr = v.GetString("redis_addr")
	cfg.CachePrefix = v.GetString("cache_prefix")
	cfg.TraceExporter = strings.ToLower(v.GetString("trace_exporter"))

	cfg.CacheBackend = strings.ToLower(v.GetString("cache_backend"))
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		return Config{}, fmt.Errorf("config: CACHE_BACKEND must be memory or redis, got %q", cfg.CacheBackend)
	}

	preset := v.GetString("default_preset")
	if _, ok := params.LookupPreset(preset); !ok {
		return Config{}, fmt.Errorf("config: DEFAULT_PRESET %q is not a known preset", preset)
	}

	ecc, ok := qrcode.ParseLevel(v.GetString("default_ecc"))
	if !ok {
		return Config{}, fmt.Errorf("config: DEFAULT_ECC %q must be one of L, M, Q, H", v.GetString("default_ecc"))
	}

	quiet, err := params.ParseQuiet(v.GetString("default_quiet"))
	if err != nil {
		return Config{}, fmt.Errorf("config: DEFAULT_QUIET: %w", err)
	}

	maxLen, err := strconv.Atoi(strings.TrimSpace(v.GetString("max_data_len")))
	if err != nil || maxLen <= 0 {
		return Config{}, fmt.Errorf("config: MAX_DATA_LEN %q must be a positive integer", v.GetString("max_data_len"))
	}

	cfg.Defaults = params.Defaults{
		Preset:     preset,
		ECC:        ecc,
		Quiet:      quiet,
		MaxDataLen: maxLen,
	}

	if cfg.LogMiss, err = parseBool(v, "log_miss"); err != nil {
		return Config{}, err
	}
	if cfg.VerifyOnMiss, err = parseBool(v, "verify_on_miss"); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = parseDuration(v, "cache_ttl"); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = parseDuration(v, "request_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.StoreTimeout, err = parseDuration(v, "store_timeout"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parseBool(v *viper.Viper, key string) (bool, error) {
	raw := v.GetString(key)
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("config: %s %q is not a boolean", strings.ToUpper(key), raw)
	}
	return b, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s %q must be a positive duration", strings.ToUpper(key), raw)
	}
	return d, nil
}
