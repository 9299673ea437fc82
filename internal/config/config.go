// Package config loads application configuration: built-in defaults, then an
// optional TOML file, then YTRSS_* environment overrides. CLI flags are
// applied on top by the command layer.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"

	"ytrss/internal/render"
)

// Config holds the application configuration.
type Config struct {
	Limit  int    `toml:"limit" env:"YTRSS_LIMIT"`
	Output string `toml:"output" env:"YTRSS_OUTPUT"`
	Quiet  bool   `toml:"quiet" env:"YTRSS_QUIET"`

	Cache CacheConfig `toml:"cache" env:",prefix=YTRSS_CACHE_"`
	Fetch FetchConfig `toml:"fetch" env:",prefix=YTRSS_FETCH_"`
	Log   LogConfig   `toml:"log" env:",prefix=YTRSS_LOG_"`
}

// CacheConfig controls the resolution cache. A TTL of zero days means
// entries never go stale.
type CacheConfig struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Path    string `toml:"path" env:"PATH"`
	TTLDays int    `toml:"ttl_days" env:"TTL_DAYS"`
}

// FetchConfig bounds the retrying fetcher.
type FetchConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	MaxAttempts    int `toml:"max_attempts" env:"MAX_ATTEMPTS"`
	BackoffMS      int `toml:"backoff_ms" env:"BACKOFF_MS"`
	MaxBackoffMS   int `toml:"max_backoff_ms" env:"MAX_BACKOFF_MS"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Limit:  5,
		Output: "text",
		Cache: CacheConfig{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
			MaxAttempts:    3,
			BackoffMS:      500,
			MaxBackoffMS:   10000,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns the well-known config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "ytrss", "config.toml")
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "ytrss-cache.db"
	}
	return filepath.Join(dir, "ytrss", "cache.db")
}

// Load builds the configuration. An empty path means the default location;
// a missing file there is not an error, but an explicitly given path must
// exist.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-chosen config path
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file; defaults apply.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", c.Limit)
	}
	if _, err := render.ParseFormat(c.Output); err != nil {
		return err
	}
	if c.Cache.TTLDays < 0 {
		return fmt.Errorf("cache ttl_days cannot be negative, got %d", c.Cache.TTLDays)
	}
	if c.Fetch.TimeoutSeconds < 1 {
		return fmt.Errorf("fetch timeout_seconds must be at least 1, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts)
	}
	if c.Fetch.BackoffMS < 1 || c.Fetch.MaxBackoffMS < c.Fetch.BackoffMS {
		return fmt.Errorf("fetch backoff bounds %dms..%dms are invalid",
			c.Fetch.BackoffMS, c.Fetch.MaxBackoffMS)
	}
	return nil
}

// CacheTTL converts the configured TTL into a duration; zero means entries
// never go stale.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLDays) * 24 * time.Hour
}

// FetchTimeout returns the per-request HTTP timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
