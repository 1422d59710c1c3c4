package sweep

import (
	"context"
	"time"

	"intake/internal/logging"
)

// Scheduler runs sweeps on a fixed interval until its context ends.
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
}

// NewScheduler builds a ticker-driven scheduler around a sweeper.
func NewScheduler(sweeper *Sweeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{sweeper: sweeper, interval: interval}
}

// Run blocks, sweeping each tick, until ctx is cancelled. A failed pass
// is logged and the schedule continues.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.sweeper.Sweep(ctx, 0); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.sweeper.logger.ErrorContext(ctx, "scheduled sweep failed", logging.Error(err))
			}
		}
	}
}
