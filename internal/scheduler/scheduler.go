// Package scheduler triggers batch runs on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/tracker"
)

// Runner is the batch surface the scheduler drives.
type Runner interface {
	Run(ctx context.Context) (tracker.BatchResult, error)
}

// Scheduler runs one batch immediately and then one per interval until
// the context is canceled.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
}

// New constructs a Scheduler. Intervals below one second are clamped.
func New(runner Runner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval < time.Second {
		interval = time.Second
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled. A failed run is logged and the loop
// keeps ticking; an empty store is expected at bootstrap and logged at a
// lower level.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, tracker.ErrNoProductsTracked) {
			s.logger.Debug("no products tracked, skipping run")
			return
		}
		s.logger.Error("batch run failed", zap.Error(err))
		return
	}
	s.logger.Info("batch run finished",
		zap.String("run_id", result.RunID),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)
}
