package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/data"
	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/domain/scoring"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
	obserrors "github.com/gradlift/ranking-go/internal/observability/errors"
	"github.com/gradlift/ranking-go/internal/observability/metrics"
	"github.com/gradlift/ranking-go/internal/observability/notify"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
	"github.com/gradlift/ranking-go/internal/queue"
	"github.com/gradlift/ranking-go/internal/service/failurenotifier"
)

// WorkerServiceOptions groups dependencies for WorkerService.
type WorkerServiceOptions struct {
	Jobs            core.JobRepository        // Required: job repository
	Results         core.ResultRepository     // Required: result repository
	Queue           core.JobQueue             // Required: job queue
	Scorer          scoring.Scorer            // Required: scoring function
	Resolver        *scoring.Resolver         // Required: scoring config resolver
	Cache           core.ScoreCacheRepository // Optional: invalidated on commit
	Notifier        *WebhookNotifierService   // Optional: completion webhook fan-out
	Logger          *slog.Logger              // Optional: structured logger
	Metrics         statsd.Sink               // Optional: metrics sink (StatsD-compatible)
	FailureNotifier *failurenotifier.Service  // Optional: failure notification fan-out
}

// WorkerService processes one dequeued scoring job at a time.
//
// The queue delivers at least once, so every step tolerates redelivery:
// a job whose result already exists is completed without rescoring, and a
// commit that loses the idempotency race is treated as success. Transient
// scoring errors send the job back to the queue until its attempt budget is
// spent; permanent errors fail it immediately.
type WorkerService struct {
	jobs            core.JobRepository
	results         core.ResultRepository
	queue           core.JobQueue
	scorer          scoring.Scorer
	resolver        *scoring.Resolver
	cache           core.ScoreCacheRepository
	notifier        *WebhookNotifierService
	logger          *slog.Logger
	metrics         statsd.Sink
	failureNotifier *failurenotifier.Service
	now             func() time.Time
}

// NewWorkerService constructs a new WorkerService.
func NewWorkerService(opts WorkerServiceOptions) (*WorkerService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Results == nil {
		return nil, errors.New("ResultRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("JobQueue is required")
	}
	if opts.Scorer == nil {
		return nil, errors.New("Scorer is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("scoring Resolver is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "worker_service")
	}

	return &WorkerService{
		jobs:            opts.Jobs,
		results:         opts.Results,
		queue:           opts.Queue,
		scorer:          opts.Scorer,
		resolver:        opts.Resolver,
		cache:           opts.Cache,
		notifier:        opts.Notifier,
		logger:          logger,
		metrics:         opts.Metrics,
		failureNotifier: opts.FailureNotifier,
		now:             time.Now,
	}, nil
}

// MustNewWorkerService constructs a new WorkerService and panics on error.
func MustNewWorkerService(opts WorkerServiceOptions) *WorkerService {
	svc, err := NewWorkerService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create WorkerService: %v", err))
	}
	return svc
}

// ProcessDelivery runs one dequeued job through claim, score, commit and ack.
// The returned error reports infrastructure trouble only; scoring failures
// are absorbed into the job's own state.
func (s *WorkerService) ProcessDelivery(ctx context.Context, d *queue.Delivery) error {
	if d == nil || d.Job == nil {
		return errors.New("delivery with job is required")
	}
	start := s.now()

	claimed, err := s.jobs.MarkInProgress(ctx, d.Job.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Row gone or already terminal: a stale redelivery. Drop it.
			s.emit("claim", metrics.ResultNoop, d.Job.ConfigVersion, start, nil)
			return s.queue.Ack(ctx, d)
		}
		return fmt.Errorf("claim job %s: %w", d.Job.ID, err)
	}

	if done, err := s.shortCircuit(ctx, d, claimed); done || err != nil {
		return err
	}

	cfg, ok := s.resolver.Get(claimed.ConfigVersion)
	if !ok {
		// The pinned version no longer resolves. Retrying cannot help.
		permErr := fmt.Errorf("scoring config version %s not found", claimed.ConfigVersion)
		return s.failPermanently(ctx, d, claimed, permErr, start)
	}

	outcome, err := s.scorer.Score(ctx, claimed.Document, cfg)
	if err != nil {
		if scoring.IsPermanent(err) {
			return s.failPermanently(ctx, d, claimed, err, start)
		}
		return s.retryOrExhaust(ctx, d, claimed, err, start)
	}

	result := &model.ScoreResult{
		ID:             uuid.NewString(),
		JobID:          claimed.ID,
		ItemRef:        claimed.ItemRef,
		IdempotencyKey: claimed.IdempotencyKey,
		Score:          outcome.Score,
		Breakdown:      outcome.BreakdownJSON(),
		ConfigVersion:  claimed.ConfigVersion,
		InputChecksum:  outcome.InputChecksum,
		ComputeRunID:   uuid.NewString(),
		ComputedAt:     s.now().UTC(),
	}

	if err := s.results.CommitCompletion(ctx, result); err != nil {
		if errors.Is(err, data.ErrDuplicateResult) {
			// Another worker won the race for this idempotency key.
			return s.completeDuplicate(ctx, d, claimed, start)
		}
		return s.retryOrExhaust(ctx, d, claimed, err, start)
	}

	s.afterCommit(ctx, result)
	s.emit("complete", metrics.ResultSuccess, claimed.ConfigVersion, start, nil)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job completed",
			"job_id", claimed.ID,
			"item_ref", claimed.ItemRef,
			"score", result.Score,
			"config_version", result.ConfigVersion,
		)
	}
	return s.queue.Ack(ctx, d)
}

// shortCircuit completes the job without scoring when a result for its
// idempotency key is already committed.
func (s *WorkerService) shortCircuit(ctx context.Context, d *queue.Delivery, claimed *model.ScoringJob) (bool, error) {
	existing, err := s.results.GetByIdempotencyKey(ctx, claimed.IdempotencyKey)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check existing result for job %s: %w", claimed.ID, err)
	}
	if existing == nil {
		return false, nil
	}
	return true, s.completeDuplicate(ctx, d, claimed, s.now())
}

// completeDuplicate marks a redelivered or raced job completed and acks it.
func (s *WorkerService) completeDuplicate(ctx context.Context, d *queue.Delivery, claimed *model.ScoringJob, start time.Time) error {
	if err := s.jobs.Complete(ctx, claimed.ID); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("complete duplicate job %s: %w", claimed.ID, err)
	}
	s.emit("complete", metrics.ResultNoop, claimed.ConfigVersion, start, nil)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "duplicate job collapsed onto existing result",
			"job_id", claimed.ID,
			"idempotency_key", claimed.IdempotencyKey,
		)
	}
	return s.queue.Ack(ctx, d)
}

// failPermanently fails the job and acks the delivery; the error cannot be
// fixed by retrying.
func (s *WorkerService) failPermanently(ctx context.Context, d *queue.Delivery, claimed *model.ScoringJob, cause error, start time.Time) error {
	if err := s.jobs.Fail(ctx, claimed.ID, cause.Error()); err != nil {
		return fmt.Errorf("fail job %s: %w", claimed.ID, err)
	}
	s.emit("failed", metrics.ResultError, claimed.ConfigVersion, start, cause)
	s.notifyFailure(ctx, claimed, cause)
	if s.logger != nil {
		s.logger.WarnContext(ctx, "job failed permanently",
			"job_id", claimed.ID,
			"item_ref", claimed.ItemRef,
			"error", cause,
		)
	}
	return s.queue.Ack(ctx, d)
}

// retryOrExhaust sends a transiently failed job back to the queue, or fails
// it once the attempt budget is spent. MarkInProgress already counted this
// attempt, so the budget check compares against the updated count.
func (s *WorkerService) retryOrExhaust(ctx context.Context, d *queue.Delivery, claimed *model.ScoringJob, cause error, start time.Time) error {
	if claimed.AttemptCount >= claimed.MaxAttempts {
		exhausted := fmt.Errorf("retry budget exhausted after %d attempts: %w", claimed.AttemptCount, cause)
		return s.failPermanently(ctx, d, claimed, exhausted, start)
	}

	if err := s.jobs.MarkPending(ctx, claimed.ID, cause.Error()); err != nil {
		return fmt.Errorf("reset job %s for retry: %w", claimed.ID, err)
	}
	s.emit("retry", metrics.ResultError, claimed.ConfigVersion, start, cause)
	if s.logger != nil {
		s.logger.WarnContext(ctx, "job scheduled for retry",
			"job_id", claimed.ID,
			"attempt", claimed.AttemptCount,
			"max_attempts", claimed.MaxAttempts,
			"error", cause,
		)
	}
	return s.queue.Nack(ctx, d)
}

// afterCommit handles the best-effort side channels of a committed result.
// Neither cache invalidation nor webhook delivery can affect job status.
func (s *WorkerService) afterCommit(ctx context.Context, result *model.ScoreResult) {
	if s.cache != nil {
		if _, err := s.cache.InvalidateItem(ctx, result.ItemRef); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "item_ref", result.ItemRef, "error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyCompletion(ctx, result); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "completion webhook failed", "job_id", result.JobID, "error", err)
		}
	}
}

func (s *WorkerService) notifyFailure(ctx context.Context, job *model.ScoringJob, cause error) {
	if s.failureNotifier == nil {
		return
	}
	s.failureNotifier.NotifyJobFailure(ctx, notify.JobFailurePayload{
		JobID:      job.ID,
		ItemRef:    job.ItemRef,
		Stage:      notify.StageScoring,
		Error:      cause.Error(),
		ErrorClass: obserrors.Classify(cause),
		Metadata: map[string]string{
			"config_version": job.ConfigVersion,
			"attempt_count":  fmt.Sprintf("%d", job.AttemptCount),
		},
	})
}

func (s *WorkerService) emit(transition, result, configVersion string, start time.Time, err error) {
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Stage:         metrics.StageScoring,
		Transition:    transition,
		Result:        result,
		ConfigVersion: configVersion,
		Duration:      s.now().Sub(start),
		Err:           err,
	})
}
