// Package notifier provides the adapter that sweeps crashed webhook deliveries.
package notifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/service"
)

// Runner periodically re-attempts webhook deliveries left pending by a crash.
// The happy path delivers inline from the worker; this loop only exists so a
// process dying mid-retry cannot strand a notification forever.
type Runner struct {
	notifier *service.WebhookNotifierService
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Notifier *service.WebhookNotifierService
	Config   config.WebhookConfig
	Logger   *slog.Logger
}

// NewRunner creates a new notifier runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Notifier == nil {
		return nil, errors.New("WebhookNotifierService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.Config.Sanitize()

	return &Runner{
		notifier: opts.Notifier,
		interval: opts.Config.SweepInterval,
		batch:    opts.Config.SweepBatchSize,
		logger:   logger.With("component", "notifier_runner"),
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting notifier runner",
		"interval", r.interval,
		"batch", r.batch,
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "notifier runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			attempted, err := r.notifier.ProcessRetryable(ctx, r.batch)
			if err != nil {
				r.logger.ErrorContext(ctx, "delivery sweep failed", "error", err)
				// Continue running despite errors
			} else if attempted > 0 {
				r.logger.InfoContext(ctx, "delivery sweep re-attempted deliveries", "count", attempted)
			}
		}
	}
}
