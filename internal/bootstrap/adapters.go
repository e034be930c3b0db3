package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/forum-api/config"
	"github.com/target/forum-api/internal/adapters/reaper"
	"github.com/target/forum-api/internal/observability/statsd"
	"github.com/target/forum-api/internal/ports"
)

// SessionReaperConfig contains configuration for the session reaper.
type SessionReaperConfig struct {
	Sweeper ports.SessionSweeper
	Auth    config.AuthConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RunSessionReaper sweeps idle sessions until ctx is cancelled.
func RunSessionReaper(ctx context.Context, cfg SessionReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		Store:   cfg.Sweeper,
		Config:  cfg.Auth,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create session reaper: %w", err)
	}

	return runner.Run(ctx)
}
