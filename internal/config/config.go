// Stylecast - Trend-Aware Fashion Ranking and Recommendation
// Copyright 2026 Stylecast Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylecast/stylecast

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML config file, and environment variables (highest priority).
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Engine   EngineConfig   `koanf:"engine"`
	Embed    EmbedConfig    `koanf:"embed"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 8460)
//   - HTTP_TIMEOUT: Request timeout (default: 30s)
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig holds DuckDB settings for the item catalog.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// EngineConfig holds ranking engine settings.
//
// TrendWeight scales how much a category's latest trend velocity boosts the
// combined score; 0 disables trend boosting entirely. Oversample controls
// how many similarity candidates are fetched per requested result before
// category filtering.
type EngineConfig struct {
	Dimension        int           `koanf:"dimension"`
	TrendWeight      float64       `koanf:"trend_weight"`
	Oversample       int           `koanf:"oversample"`
	EMASpan          int           `koanf:"ema_span"`
	Categories       []string      `koanf:"categories"`
	ArtifactPath     string        `koanf:"artifact_path"`
	RebuildOnStartup bool          `koanf:"rebuild_on_startup"`
	RebuildInterval  time.Duration `koanf:"rebuild_interval"` // 0 = no periodic rebuild
}

// EmbedConfig holds settings for the external image embedding service.
type EmbedConfig struct {
	Enabled     bool          `koanf:"enabled"`
	URL         string        `koanf:"url"`
	Timeout     time.Duration `koanf:"timeout"`
	RatePerSec  float64       `koanf:"rate_per_sec"`
	Burst       int           `koanf:"burst"`
	MaxFailures uint32        `koanf:"max_failures"` // consecutive failures before the breaker opens
}

// APIConfig holds pagination and response limits.
type APIConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must not be negative, got %d", c.Database.Threads)
	}
	if c.Engine.Dimension < 1 {
		return fmt.Errorf("engine.dimension must be positive, got %d", c.Engine.Dimension)
	}
	if c.Engine.TrendWeight < 0 {
		return fmt.Errorf("engine.trend_weight must not be negative, got %g", c.Engine.TrendWeight)
	}
	if c.Engine.Oversample < 1 {
		return fmt.Errorf("engine.oversample must be at least 1, got %d", c.Engine.Oversample)
	}
	if c.Engine.EMASpan < 1 {
		return fmt.Errorf("engine.ema_span must be at least 1, got %d", c.Engine.EMASpan)
	}
	if c.Engine.RebuildInterval < 0 {
		return fmt.Errorf("engine.rebuild_interval must not be negative, got %s", c.Engine.RebuildInterval)
	}
	if c.Embed.Enabled && c.Embed.URL == "" {
		return fmt.Errorf("embed.url is required when embed.enabled is true")
	}
	if c.Embed.Enabled && c.Embed.Timeout <= 0 {
		return fmt.Errorf("embed.timeout must be positive, got %s", c.Embed.Timeout)
	}
	if c.API.DefaultLimit < 1 {
		return fmt.Errorf("api.default_limit must be positive, got %d", c.API.DefaultLimit)
	}
	if c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("api.max_limit (%d) must not be less than api.default_limit (%d)",
			c.API.MaxLimit, c.API.DefaultLimit)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
