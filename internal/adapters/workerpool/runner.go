// Package workerpool runs the scoring worker goroutines against the queue.
package workerpool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/data"
	"github.com/gradlift/ranking-go/internal/domain/scoring"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
	"github.com/gradlift/ranking-go/internal/queue"
	"github.com/gradlift/ranking-go/internal/service"
	"github.com/gradlift/ranking-go/internal/service/failurenotifier"
)

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB       *sql.DB
	Redis    redis.UniversalClient
	Config   config.WorkerConfig
	Queue    config.QueueConfig
	Scoring  config.ScoringConfig
	Logger   *slog.Logger
	Metrics  statsd.Sink
	Notifier *service.WebhookNotifierService

	// Optional dependency injections for testing/decoupling
	Jobs            core.JobRepository
	Results         core.ResultRepository
	JobQueue        core.JobQueue
	Cache           core.ScoreCacheRepository
	Scorer          scoring.Scorer
	Resolver        *scoring.Resolver
	FailureNotifier *failurenotifier.Service
}

// Runner pulls scoring jobs off the queue and processes them with a pool of
// worker goroutines.
type Runner struct {
	worker  *service.WorkerService
	queue   core.JobQueue
	cfg     config.WorkerConfig
	logger  *slog.Logger
	workers int
}

// NewRunner wires repositories and the worker service into a pool runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	deps, err := wireRunnerDependencies(opts)
	if err != nil {
		return nil, fmt.Errorf("wire worker dependencies: %w", err)
	}

	worker, err := service.NewWorkerService(service.WorkerServiceOptions{
		Jobs:            deps.jobs,
		Results:         deps.results,
		Queue:           deps.queue,
		Scorer:          deps.scorer,
		Resolver:        deps.resolver,
		Cache:           deps.cache,
		Notifier:        opts.Notifier,
		Logger:          opts.Logger,
		Metrics:         opts.Metrics,
		FailureNotifier: opts.FailureNotifier,
	})
	if err != nil {
		return nil, fmt.Errorf("create worker service: %w", err)
	}

	return &Runner{
		worker:  worker,
		queue:   deps.queue,
		cfg:     opts.Config,
		logger:  opts.Logger.With("component", "worker_pool"),
		workers: opts.Config.Concurrency,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && (opts.Jobs == nil || opts.Results == nil) {
		return errors.New("either DB or job and result repositories must be provided")
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

type runnerDeps struct {
	jobs     core.JobRepository
	results  core.ResultRepository
	queue    core.JobQueue
	cache    core.ScoreCacheRepository
	scorer   scoring.Scorer
	resolver *scoring.Resolver
}

// wireRunnerDependencies wires concrete repositories for any dependency not
// injected through the options.
func wireRunnerDependencies(opts RunnerOptions) (runnerDeps, error) {
	deps := runnerDeps{
		jobs:     opts.Jobs,
		results:  opts.Results,
		queue:    opts.JobQueue,
		cache:    opts.Cache,
		scorer:   opts.Scorer,
		resolver: opts.Resolver,
	}

	var jobRepo *data.JobRepo
	if deps.jobs == nil {
		jobRepo = data.NewJobRepo(opts.DB)
		deps.jobs = jobRepo
	}
	if deps.results == nil {
		if jobRepo == nil {
			jobRepo = data.NewJobRepo(opts.DB)
		}
		deps.results = data.NewResultRepo(opts.DB, jobRepo)
	}
	if deps.queue == nil {
		deps.queue = queue.New(opts.Redis, queue.Options{
			KeyPrefix:         opts.Queue.KeyPrefix,
			VisibilityTimeout: opts.Queue.VisibilityTimeout,
		})
	}
	if deps.scorer == nil {
		deps.scorer = scoring.NewCompositeScorer()
	}
	if deps.resolver == nil {
		resolver, err := scoring.NewResolver(opts.Scoring.ActiveVersion, opts.Scoring.CalibrationPath, opts.Logger)
		if err != nil {
			return runnerDeps{}, fmt.Errorf("build scoring resolver: %w", err)
		}
		deps.resolver = resolver
	}
	return deps, nil
}

// Run starts the worker pool and blocks until the context is cancelled or a
// worker hits a fatal error.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting worker pool",
		"workers", r.workers,
		"dequeue_timeout", r.cfg.DequeueTimeout,
	)

	// The first fatal worker error cancels the group context and stops the
	// remaining workers.
	group, gctx := errgroup.WithContext(ctx)
	for range r.workers {
		group.Go(func() error { return r.workerLoop(gctx) })
	}
	return group.Wait()
}

// workerLoop dequeues and processes jobs until the context ends. Queue
// outages are waited out with exponential backoff rather than crashing the
// pool; jobs stay in Redis and are picked up when it returns.
func (r *Runner) workerLoop(ctx context.Context) error {
	backoff := r.cfg.UnavailableBackoff
	for ctx.Err() == nil {
		d, err := r.queue.Dequeue(ctx, r.cfg.DequeueTimeout)
		switch {
		case err == nil && d == nil:
			// Blocking pop timed out with nothing pending.
			backoff = r.cfg.UnavailableBackoff
		case err == nil:
			backoff = r.cfg.UnavailableBackoff
			if perr := r.worker.ProcessDelivery(ctx, d); perr != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.ErrorContext(ctx, "process delivery failed",
					"job_id", d.Job.ID,
					"error", perr,
				)
			}
		case errors.Is(err, queue.ErrUnavailable):
			r.logger.WarnContext(ctx, "queue unavailable, backing off",
				"backoff", backoff,
				"error", err,
			)
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, r.cfg.UnavailableBackoffMax)
		case errors.Is(err, context.Canceled):
			return nil
		default:
			return fmt.Errorf("dequeue: %w", err)
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
