package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Save backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

type Config struct {
	Environment   string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName  string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string        `env:"LOG_FILE"` // empty: discard while the UI owns the terminal
	SaveBackend   string        `env:"SAVE_BACKEND" envDefault:"sqlite"`
	SavePath      string        `env:"SAVE_PATH" envDefault:"saves/multiverse.db"`
	RedisURL      string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SaveTTL       time.Duration `env:"SAVE_TTL" envDefault:"0s"`
	Charges       int           `env:"STARTING_CHARGES" envDefault:"5"`
	Autosave      bool          `env:"AUTOSAVE" envDefault:"true"`
	Seed          uint64        `env:"SEED" envDefault:"0"`
	ContentRating string        `env:"CONTENT_RATING" envDefault:"PG13"`

	LogLevel slog.Level // derived from LogLevelName
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.SaveBackend = strings.ToLower(strings.TrimSpace(cfg.SaveBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env parsing cannot.
func (c *Config) Validate() error {
	switch c.SaveBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.SavePath) == "" {
			return fmt.Errorf("SAVE_PATH is required for the sqlite backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown SAVE_BACKEND %q (want sqlite, redis or none)", c.SaveBackend)
	}
	if c.Charges < 0 {
		return fmt.Errorf("STARTING_CHARGES must not be negative, got %d", c.Charges)
	}
	if c.SaveTTL < 0 {
		return fmt.Errorf("SAVE_TTL must not be negative, got %s", c.SaveTTL)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
