package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reaper periodically purges expired server-side sessions.
type Reaper struct {
	purger   Purger
	interval time.Duration
	logger   *zap.Logger
}

// NewReaper builds a reaper; a non-positive interval defaults to ten minutes.
func NewReaper(purger Purger, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{purger: purger, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	n, err := r.purger.Purge(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("purge expired sessions", zap.Error(err))
		}
		return
	}
	if n > 0 {
		r.logger.Info("purged expired sessions", zap.Int64("count", n))
	}
}
