// Package config defines service configuration and its loading.
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

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the ingestion queue across all shards.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers (one per queue shard).
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many session keys are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxTwins caps the number of twins held in memory; 0 means no cap.
	MaxTwins int `koanf:"max_twins"`

	// MaxHorizonDays caps simulation and taper horizons.
	MaxHorizonDays int `koanf:"max_horizon_days"`

	// DefaultScenarioDays is used by scenarios that omit a horizon.
	DefaultScenarioDays int `koanf:"default_scenario_days"`

	// ScenarioParallelism bounds concurrent scenario simulations per request.
	ScenarioParallelism int `koanf:"scenario_parallelism"`

	// MaxScenarios caps scenarios per comparison request.
	MaxScenarios int `koanf:"max_scenarios"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MetricsInterval is the refresh period of system and service gauges.
	MetricsInterval time.Duration `koanf:"metrics_interval"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		MaxTwins:            0,
		MaxHorizonDays:      1095,
		DefaultScenarioDays: 84,
		ScenarioParallelism: 4,
		MaxScenarios:        16,
		ShutdownTimeout:     10 * time.Second,
		MetricsInterval:     5 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.MaxTwins < 0:
		return fmt.Errorf("%w: max_twins must not be negative, got %d", ErrInvalidConfig, c.MaxTwins)
	case c.MaxHorizonDays < 1:
		return fmt.Errorf("%w: max_horizon_days must be positive, got %d", ErrInvalidConfig, c.MaxHorizonDays)
	case c.DefaultScenarioDays < 1 || c.DefaultScenarioDays > c.MaxHorizonDays:
		return fmt.Errorf("%w: default_scenario_days must be in [1, %d], got %d",
			ErrInvalidConfig, c.MaxHorizonDays, c.DefaultScenarioDays)
	case c.ScenarioParallelism < 1:
		return fmt.Errorf("%w: scenario_parallelism must be positive, got %d", ErrInvalidConfig, c.ScenarioParallelism)
	case c.MaxScenarios < 2:
		return fmt.Errorf("%w: max_scenarios must be at least 2, got %d", ErrInvalidConfig, c.MaxScenarios)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
