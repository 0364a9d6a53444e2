// Package scheduler provides the adapter that drives periodic rescore passes.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/data"
	"github.com/gradlift/ranking-go/internal/domain/scoring"
	obserrors "github.com/gradlift/ranking-go/internal/observability/errors"
	"github.com/gradlift/ranking-go/internal/observability/metrics"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
	"github.com/gradlift/ranking-go/internal/queue"
	"github.com/gradlift/ranking-go/internal/service"
)

// Runner ticks the cron service: a rescore pass every interval and ranking
// maintenance every maintenance interval.
//
// Ticks are singleflighted twice over. A Redis lock keeps overlapping
// scheduler processes from running the same tick, and the advisory lock
// inside the rescore pass protects the due-policy selection itself.
type Runner struct {
	cron        *service.CronService
	lock        *queue.Lock
	interval    time.Duration
	maintenance time.Duration
	logger      *slog.Logger
	metrics     statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB      *sql.DB
	Redis   redis.UniversalClient
	Config  config.CronConfig
	Worker  config.WorkerConfig
	Queue   config.QueueConfig
	Scoring config.ScoringConfig
	Logger  *slog.Logger
	Metrics statsd.Sink

	// Optional dependency injections for testing/decoupling
	Policies core.RescoreRepository
	Jobs     core.JobRepository
	Rankings core.RankingRepository
	JobQueue core.JobQueue
	Cache    core.ScoreCacheRepository
	Resolver *scoring.Resolver
}

// NewRunner creates a new scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	cron, err := wireCronService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire cron service: %w", err)
	}

	var lock *queue.Lock
	if opts.Redis != nil {
		lock = queue.NewLock(opts.Redis, opts.Queue.KeyPrefix+":lock:cron", opts.Config.Interval)
	}

	return &Runner{
		cron:        cron,
		lock:        lock,
		interval:    opts.Config.Interval,
		maintenance: opts.Config.MaintenanceInterval,
		logger:      opts.Logger.With("component", "scheduler_runner"),
		metrics:     opts.Metrics,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && (opts.Policies == nil || opts.Jobs == nil || opts.Rankings == nil) {
		return errors.New("either DB or rescore, job and ranking repositories must be provided")
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

// wireCronService wires concrete repositories for any dependency not injected
// through the options.
func wireCronService(opts RunnerOptions) (*service.CronService, error) {
	policies := opts.Policies
	if policies == nil {
		policies = data.NewRescoreRepo(opts.DB)
	}
	jobs := opts.Jobs
	if jobs == nil {
		jobs = data.NewJobRepo(opts.DB)
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
	resolver := opts.Resolver
	if resolver == nil {
		var err error
		resolver, err = scoring.NewResolver(opts.Scoring.ActiveVersion, opts.Scoring.CalibrationPath, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("build scoring resolver: %w", err)
		}
	}

	return service.NewCronService(service.CronServiceOptions{
		Policies: policies,
		Jobs:     jobs,
		Rankings: rankings,
		Queue:    jobQueue,
		Resolver: resolver,
		Cache:    opts.Cache,
		Config:   opts.Config,
		Worker:   opts.Worker,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	})
}

// Run starts the scheduler loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scheduler runner",
		"interval", r.interval,
		"maintenance_interval", r.maintenance,
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	maintenance := time.NewTicker(r.maintenance)
	defer maintenance.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			r.tick(ctx)

		case <-maintenance.C:
			if err := r.cron.RunMaintenance(ctx); err != nil {
				r.logger.ErrorContext(ctx, "ranking maintenance failed", "error", err)
			}
		}
	}
}

// tick runs one rescore pass under the Redis singleflight lock.
func (r *Runner) tick(ctx context.Context) {
	if r.lock != nil {
		acquired, err := r.lock.TryAcquire(ctx, uuid.NewString())
		if err != nil {
			r.logger.WarnContext(ctx, "cron lock unavailable, skipping tick", "error", err)
			return
		}
		if !acquired {
			r.logger.DebugContext(ctx, "cron tick skipped, lock held elsewhere")
			return
		}
		defer func() {
			if err := r.lock.Release(ctx); err != nil {
				r.logger.WarnContext(ctx, "cron lock release failed", "error", err)
			}
		}()
	}

	start := time.Now()
	enqueued, err := r.cron.RunRescorePass(ctx)
	r.emitTickMetrics(enqueued, time.Since(start), err)
	if err != nil {
		r.logger.ErrorContext(ctx, "rescore pass failed", "error", err)
		// Continue running despite errors
	}
}

func (r *Runner) emitTickMetrics(enqueued int, elapsed time.Duration, err error) {
	if r.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if enqueued == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"result": result,
	}

	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	r.metrics.Count("scheduler.tick", 1, tags)

	if enqueued > 0 {
		r.metrics.Count("scheduler.jobs_enqueued", int64(enqueued), tags)
	}

	if elapsed > 0 {
		r.metrics.Timing("scheduler.tick_duration", elapsed, metrics.CloneTags(tags))
	}

	if err == nil {
		r.metrics.Gauge("scheduler.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}
