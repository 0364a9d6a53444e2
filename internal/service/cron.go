package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/domain/scoring"
	"github.com/gradlift/ranking-go/internal/observability/metrics"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
)

// rescoreLockName keys the Postgres advisory lock serialising rescore passes.
const rescoreLockName = "rescore-pass"

// CronServiceOptions groups dependencies for CronService.
type CronServiceOptions struct {
	Policies core.RescoreRepository    // Required: rescore policy repository
	Jobs     core.JobRepository        // Required: job repository
	Rankings core.RankingRepository    // Required: ranking maintenance repository
	Queue    core.JobQueue             // Required: job queue
	Resolver *scoring.Resolver         // Required: scoring config resolver
	Cache    core.ScoreCacheRepository // Optional: invalidated after maintenance
	Config   config.CronConfig         // Required: batch size, debounce and histogram settings
	Worker   config.WorkerConfig       // Optional: supplies the default retry budget
	Logger   *slog.Logger              // Optional: structured logger
	Metrics  statsd.Sink               // Optional: metrics sink (StatsD-compatible)
}

// CronService drives the periodic work of the pipeline: enqueueing due
// rescore policies and refreshing the derived ranking state.
//
// A rescore pass is serialised across processes with a Postgres advisory
// lock, and the due policies are selected FOR UPDATE SKIP LOCKED, so
// overlapping schedulers never enqueue the same policy twice. Missed ticks
// are not backfilled; an overdue policy fires once on the next pass.
type CronService struct {
	policies    core.RescoreRepository
	jobs        core.JobRepository
	rankings    core.RankingRepository
	queue       core.JobQueue
	resolver    *scoring.Resolver
	cache       core.ScoreCacheRepository
	cfg         config.CronConfig
	maxAttempts int
	logger      *slog.Logger
	metrics     statsd.Sink
	now         func() time.Time
}

// NewCronService constructs a new CronService.
func NewCronService(opts CronServiceOptions) (*CronService, error) {
	if opts.Policies == nil {
		return nil, errors.New("RescoreRepository is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Rankings == nil {
		return nil, errors.New("RankingRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("JobQueue is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("scoring Resolver is required")
	}
	if opts.Config.BatchSize < 1 {
		return nil, errors.New("batch size must be positive")
	}

	maxAttempts := opts.Worker.DefaultMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "cron_service")
	}

	return &CronService{
		policies:    opts.Policies,
		jobs:        opts.Jobs,
		rankings:    opts.Rankings,
		queue:       opts.Queue,
		resolver:    opts.Resolver,
		cache:       opts.Cache,
		cfg:         opts.Config,
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     opts.Metrics,
		now:         time.Now,
	}, nil
}

// MustNewCronService constructs a new CronService and panics on error.
func MustNewCronService(opts CronServiceOptions) *CronService {
	svc, err := NewCronService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create CronService: %v", err))
	}
	return svc
}

// RunRescorePass enqueues scoring jobs for due rescore policies. Returns the
// number of jobs enqueued; zero with no error means either nothing was due
// or another scheduler holds the lock.
func (s *CronService) RunRescorePass(ctx context.Context) (int, error) {
	enqueued := 0

	locked, err := s.policies.TryWithScheduleLock(ctx, rescoreLockName,
		func(ctx context.Context, tx *sql.Tx) error {
			n, passErr := s.enqueueDue(ctx, tx)
			enqueued = n
			return passErr
		})
	if err != nil {
		return 0, fmt.Errorf("rescore pass: %w", err)
	}
	if !locked {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "rescore pass skipped, lock held elsewhere")
		}
		return 0, nil
	}
	return enqueued, nil
}

// enqueueDue selects due policies under row locks, enqueues a job for each,
// and marks the policy queued in the same transaction. A policy is marked
// only after its enqueue succeeds, so an enqueue failure leaves it due and
// the debounce key suppresses the duplicate on the retried pass.
func (s *CronService) enqueueDue(ctx context.Context, tx *sql.Tx) (int, error) {
	now := s.now().UTC()
	due, err := s.policies.FindDueTx(ctx, tx, now, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find due policies: %w", err)
	}

	enqueued := 0
	cfg := s.resolver.Active()
	for i := range due {
		policy := &due[i]
		job := s.jobForPolicy(policy, cfg)

		if err := s.jobs.Create(ctx, job); err != nil {
			return enqueued, fmt.Errorf("create rescore job for %s: %w", policy.ItemRef, err)
		}

		pushed, err := s.queue.EnqueueDebounced(ctx, job, s.cfg.DebounceTTL)
		if err != nil {
			return enqueued, fmt.Errorf("enqueue rescore job for %s: %w", policy.ItemRef, err)
		}
		if !pushed {
			// A recent enqueue for this item is still in flight. Drop the
			// just-created row so it neither sits pending forever nor counts
			// as a failure, and mark the policy so it waits a full interval
			// before the next try.
			if err := s.jobs.Delete(ctx, job.ID); err != nil {
				return enqueued, fmt.Errorf("drop debounced job for %s: %w", policy.ItemRef, err)
			}
			if s.logger != nil {
				s.logger.DebugContext(ctx, "rescore enqueue debounced", "item_ref", policy.ItemRef)
			}
		} else {
			enqueued++
		}

		if _, err := s.policies.MarkQueuedTx(ctx, tx, policy.ID, now); err != nil {
			return enqueued, fmt.Errorf("mark policy %s queued: %w", policy.ID, err)
		}
	}

	if enqueued > 0 {
		metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
			Stage:      metrics.StageCron,
			Transition: "rescore_enqueue",
			Result:     metrics.ResultSuccess,
		})
		if s.logger != nil {
			s.logger.InfoContext(ctx, "rescore pass enqueued jobs", "count", enqueued, "due", len(due))
		}
	}
	return enqueued, nil
}

func (s *CronService) jobForPolicy(policy *model.RescorePolicy, cfg scoring.Config) *model.ScoringJob {
	// The caller key ties the idempotency key to this policy firing, so each
	// scheduled rescore yields a fresh result even under an unchanged config.
	callerKey := fmt.Sprintf("rescore:%s:%d", policy.ID, s.now().UTC().Unix())
	return &model.ScoringJob{
		ID:             uuid.NewString(),
		ItemRef:        policy.ItemRef,
		Document:       policy.Document,
		ConfigVersion:  cfg.Version,
		IdempotencyKey: model.DeriveIdempotencyKey(policy.ItemRef, cfg.Version, callerKey),
		Status:         model.JobStatusPending,
		MaxAttempts:    s.maxAttempts,
	}
}

// RunMaintenance refreshes the derived ranking state: dense ranks, global
// percentile stats and the score histogram, then drops the stale cache entry.
func (s *CronService) RunMaintenance(ctx context.Context) error {
	start := s.now()

	changed, err := s.rankings.RecomputeRanks(ctx)
	if err != nil {
		return s.maintenanceErr(ctx, "recompute ranks", err)
	}
	if err := s.rankings.RefreshGlobalStats(ctx); err != nil {
		return s.maintenanceErr(ctx, "refresh global stats", err)
	}
	if err := s.rankings.RebuildHistogram(ctx, s.cfg.HistogramBucketWidth); err != nil {
		return s.maintenanceErr(ctx, "rebuild histogram", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateGlobalStats(ctx); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "global stats cache invalidation failed", "error", err)
		}
	}

	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Stage:      metrics.StageCron,
		Transition: "maintenance",
		Result:     metrics.ResultSuccess,
		Duration:   s.now().Sub(start),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ranking maintenance complete",
			"ranks_changed", changed,
			"elapsed", s.now().Sub(start),
		)
	}
	return nil
}

func (s *CronService) maintenanceErr(ctx context.Context, step string, err error) error {
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Stage:      metrics.StageCron,
		Transition: "maintenance",
		Result:     metrics.ResultError,
		Err:        err,
	})
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "ranking maintenance failed", "step", step, "error", err)
	}
	return fmt.Errorf("%s: %w", step, err)
}
