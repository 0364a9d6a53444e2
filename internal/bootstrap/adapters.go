package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/adapters/notifier"
	"github.com/gradlift/ranking-go/internal/adapters/reaper"
	"github.com/gradlift/ranking-go/internal/adapters/scheduler"
	"github.com/gradlift/ranking-go/internal/adapters/workerpool"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
	"github.com/gradlift/ranking-go/internal/service"
	"github.com/gradlift/ranking-go/internal/service/failurenotifier"
)

// WorkerPoolConfig contains dependencies for running the scoring worker pool.
type WorkerPoolConfig struct {
	Config          *config.AppConfig
	DB              *sql.DB
	Redis           redis.UniversalClient
	Logger          *slog.Logger
	Metrics         statsd.Sink
	Notifier        *service.WebhookNotifierService
	FailureNotifier *failurenotifier.Service
}

// RunWorkerPool starts the scoring worker pool and blocks until the context
// is cancelled or the pool fails.
func RunWorkerPool(ctx context.Context, cfg WorkerPoolConfig) error {
	if cfg.Config == nil {
		return errors.New("worker pool requires app config")
	}

	runner, err := workerpool.NewRunner(workerpool.RunnerOptions{
		DB:              cfg.DB,
		Redis:           cfg.Redis,
		Config:          cfg.Config.Worker,
		Queue:           cfg.Config.Queue,
		Scoring:         cfg.Config.Scoring,
		Logger:          cfg.Logger,
		Metrics:         cfg.Metrics,
		Notifier:        cfg.Notifier,
		FailureNotifier: cfg.FailureNotifier,
	})
	if err != nil {
		return fmt.Errorf("create worker pool runner: %w", err)
	}

	return runner.Run(ctx)
}

// SchedulerConfig contains dependencies for running the rescore scheduler.
type SchedulerConfig struct {
	Config  *config.AppConfig
	DB      *sql.DB
	Redis   redis.UniversalClient
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RunScheduler starts the rescore scheduler and blocks until the context is
// cancelled or the scheduler fails.
func RunScheduler(ctx context.Context, cfg SchedulerConfig) error {
	if cfg.Config == nil {
		return errors.New("scheduler requires app config")
	}

	runner, err := scheduler.NewRunner(scheduler.RunnerOptions{
		DB:      cfg.DB,
		Redis:   cfg.Redis,
		Config:  cfg.Config.Cron,
		Worker:  cfg.Config.Worker,
		Queue:   cfg.Config.Queue,
		Scoring: cfg.Config.Scoring,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create scheduler runner: %w", err)
	}

	return runner.Run(ctx)
}

// ReaperConfig contains dependencies for running the cleanup loop.
type ReaperConfig struct {
	Config  *config.AppConfig
	DB      *sql.DB
	Redis   redis.UniversalClient
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RunReaper starts the reaper and blocks until the context is cancelled or
// the reaper fails.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	if cfg.Config == nil {
		return errors.New("reaper requires app config")
	}

	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Redis:   cfg.Redis,
		Config:  cfg.Config.Reaper,
		Queue:   cfg.Config.Queue,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}

// NotifierConfig contains dependencies for running the webhook redelivery sweep.
type NotifierConfig struct {
	Config   *config.AppConfig
	Notifier *service.WebhookNotifierService
	Logger   *slog.Logger
}

// RunNotifier starts the webhook redelivery sweep and blocks until the
// context is cancelled.
func RunNotifier(ctx context.Context, cfg NotifierConfig) error {
	if cfg.Config == nil {
		return errors.New("notifier requires app config")
	}
	if cfg.Notifier == nil {
		return errors.New("notifier service mode requires WEBHOOK_ENABLED=true")
	}

	runner, err := notifier.NewRunner(notifier.RunnerOptions{
		Notifier: cfg.Notifier,
		Config:   cfg.Config.Webhook,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return fmt.Errorf("create notifier runner: %w", err)
	}

	return runner.Run(ctx)
}
