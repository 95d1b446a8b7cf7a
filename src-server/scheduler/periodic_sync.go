// Package scheduler repeats a job until its context is cancelled.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Every runs job immediately and then once per interval. A failed job is
// logged and retried on the next tick; only cancellation stops the loop.
// Runs never overlap.
func Every(ctx context.Context, interval time.Duration, job func(ctx context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		start := time.Now()
		if err := job(ctx); err != nil {
			slog.Error("scheduler: job failed", "error", err)
		} else {
			slog.Debug("scheduler: job done", "took", time.Since(start))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
