package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/forum-api/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// EnabledComponents lists the runtime components the configuration turns on, for startup logging.
func EnabledComponents(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	components := []string{"http", "sessions:" + string(cfg.Auth.SessionStore)}
	if cfg.Auth.SessionStore == config.SessionStoreMemory {
		components = append(components, "session-reaper")
	}
	if cfg.Cache.ProfilesEnabled {
		components = append(components, "profile-cache")
	}
	if cfg.Observability.Metrics.IsEnabled() {
		components = append(components, "statsd")
	}
	return components
}
