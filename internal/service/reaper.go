package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/target/forum-api/internal/observability/metrics"
	"github.com/target/forum-api/internal/observability/statsd"
	"github.com/target/forum-api/internal/ports"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Sweeper  ports.SessionSweeper // Required: store to sweep
	Interval time.Duration        // Required: time between sweeps
	Logger   *slog.Logger         // Optional: structured logger
	Metrics  statsd.Sink          // Optional: metrics sink (StatsD-compatible)
	Now      func() time.Time     // Optional: clock override for tests
}

// ReaperService periodically removes idle-expired sessions from stores that have no
// native expiry. Expired sessions are already invisible to Read; sweeping only reclaims memory.
type ReaperService struct {
	sweeper  ports.SessionSweeper
	interval time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Sweeper == nil {
		return nil, errors.New("SessionSweeper is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "session_reaper")
		logger.Debug("ReaperService initialized", "interval", opts.Interval)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &ReaperService{
		sweeper:  opts.Sweeper,
		interval: opts.Interval,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      now,
	}, nil
}

// Run sweeps at the configured interval until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), ctx.Err() otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting session reaper", "interval", s.interval)
	}

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "session reaper stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs a single sweep and returns the number of sessions removed.
func (s *ReaperService) SweepOnce(ctx context.Context) int {
	start := time.Now()
	removed := s.sweeper.Sweep(s.now())
	active := s.sweeper.Len()

	metrics.EmitSessionSweep(s.metrics, metrics.SweepMetric{
		Removed:  removed,
		Active:   active,
		Duration: time.Since(start),
	})

	if removed > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "swept idle sessions", "removed", removed, "active", active)
	}
	return removed
}

// waitWithJitter delays up to 10% of the interval so instances started together drift apart.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
