// Package reaper provides the adapter that runs pipeline cleanup.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/data"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
	"github.com/gradlift/ranking-go/internal/queue"
	"github.com/gradlift/ranking-go/internal/service"
)

// Runner provides a simple adapter to run the reaper loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB      *sql.DB
	Redis   redis.UniversalClient
	Config  config.ReaperConfig
	Queue   config.QueueConfig
	Logger  *slog.Logger
	Metrics statsd.Sink

	// Optional dependency injections for testing/decoupling
	Jobs       core.JobRepository
	Deliveries core.DeliveryRepository
	Rankings   core.RankingRepository
	JobQueue   core.JobQueue
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	reaper, err := wireReaperService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{
		reaper: reaper,
		logger: opts.Logger,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && (opts.Jobs == nil || opts.Deliveries == nil || opts.Rankings == nil) {
		return errors.New("either DB or job, delivery and ranking repositories must be provided")
	}
	if opts.Redis == nil && opts.JobQueue == nil {
		return errors.New("either Redis or JobQueue must be provided")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Config.Sanitize()
	return nil
}

// wireReaperService wires concrete repositories for any dependency not
// injected through the options.
func wireReaperService(opts RunnerOptions) (*service.ReaperService, error) {
	jobs := opts.Jobs
	if jobs == nil {
		jobs = data.NewJobRepo(opts.DB)
	}
	deliveries := opts.Deliveries
	if deliveries == nil {
		deliveries = data.NewDeliveryRepo(opts.DB)
	}
	rankings := opts.Rankings
	if rankings == nil {
		rankings = data.NewRankingRepo(opts.DB)
	}
	jobQueue := opts.JobQueue
	if jobQueue == nil {
		jobQueue = queue.New(opts.Redis, queue.Options{
			KeyPrefix:         opts.Queue.KeyPrefix,
			VisibilityTimeout: opts.Queue.VisibilityTimeout,
		})
	}

	return service.NewReaperService(service.ReaperServiceOptions{
		Jobs:       jobs,
		Deliveries: deliveries,
		Rankings:   rankings,
		Queue:      jobQueue,
		Config:     opts.Config,
		Logger:     opts.Logger,
		Metrics:    opts.Metrics,
	})
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}
