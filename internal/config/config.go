// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Session timers. The first-move timer refunds an untouched session;
	// the idle timer settles a session with progress at its current
	// multiplier; the replay window bounds the post-settlement offer.
	FirstMoveTimeout time.Duration `env:"FIRST_MOVE_TIMEOUT" default:"180s"`
	IdleTimeout      time.Duration `env:"IDLE_TIMEOUT" default:"90s"`
	ReplayWindow     time.Duration `env:"REPLAY_WINDOW" default:"30s"`

	// Lease and sweep. The lease TTL must comfortably exceed the idle
	// timeout so a live session never loses its lease between actions.
	LeaseTTL      time.Duration `env:"LEASE_TTL" default:"5m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" default:"1m"`
	SweepHorizon  time.Duration `env:"SWEEP_HORIZON" default:"10m"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if cfg.LeaseTTL <= cfg.IdleTimeout {
		return fmt.Errorf("LEASE_TTL (%s) must exceed IDLE_TIMEOUT (%s)", cfg.LeaseTTL, cfg.IdleTimeout)
	}
	if cfg.FirstMoveTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ReplayWindow <= 0 {
		return fmt.Errorf("session timers must be positive")
	}
	if cfg.SweepInterval <= 0 || cfg.SweepHorizon <= 0 {
		return fmt.Errorf("sweep settings must be positive")
	}
	return nil
}
