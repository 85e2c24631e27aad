// Package config defines process configuration and its loading.
//
// Conventions:
// - New(ctx) returns a Config holding the defaults.
// - Load(ctx) layers a YAML file and COURTSIDE_* env vars on top.
// - Errors wrap this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// WorkerCount sets the number of reconstruction workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory game queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the duplicate-submission cache.
	DedupeSize int `koanf:"dedupe_size"`

	// GameTimeoutMS bounds the reconstruction of one game.
	GameTimeoutMS int `koanf:"game_timeout_ms"`

	// FuzzyThreshold is the minimum name similarity accepted by the roster
	// resolver's fuzzy stage.
	FuzzyThreshold float64 `koanf:"fuzzy_threshold"`

	// StorePath selects the SQLite database; empty keeps results in memory.
	StorePath string `koanf:"store_path"`

	// MetricsAddr serves Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		WorkerCount:    runtime.NumCPU(),
		QueueSize:      10_000,
		DedupeSize:     50_000,
		GameTimeoutMS:  5000,
		FuzzyThreshold: 0.85,
	}
}

// GameTimeout returns GameTimeoutMS as a duration.
func (c *Config) GameTimeout() time.Duration {
	return time.Duration(c.GameTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	}
	if c.DedupeSize < 0 {
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	}
	if c.GameTimeoutMS < 1 {
		return fmt.Errorf("%w: game_timeout_ms must be positive, got %d", ErrInvalidConfig, c.GameTimeoutMS)
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("%w: fuzzy_threshold must be in (0, 1], got %v", ErrInvalidConfig, c.FuzzyThreshold)
	}
	return nil
}
