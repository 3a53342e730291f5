package expiry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = time.Minute

// Restorer lifts suspensions whose expiry passed and reports how many
// targets it restored.
type Restorer interface {
	RestoreExpired(ctx context.Context) (int, error)
}

type Job struct {
	restorer Restorer
	interval time.Duration
	logger   *zap.Logger
}

func New(restorer Restorer, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		restorer: restorer,
		interval: interval,
		logger:   logger,
	}
}

// Run performs one pass.
func (j *Job) Run(ctx context.Context) error {
	if j.restorer == nil {
		return nil
	}

	restored, err := j.restorer.RestoreExpired(ctx)
	if err != nil {
		return fmt.Errorf("restore expired suspensions: %w", err)
	}
	if restored > 0 {
		j.logger.Info("expired suspensions restored", zap.Int("restored", restored))
	}
	return nil
}

// Loop runs the job every interval until ctx is cancelled. A failed pass is
// logged and retried on the next tick.
func (j *Job) Loop(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.logger.Warn("expiry job failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
