// Package service contains the business logic of the ranking pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/domain/scoring"
	"github.com/gradlift/ranking-go/internal/observability/metrics"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Jobs     core.JobRepository    // Required: job repository
	Results  core.ResultRepository // Required: result repository
	Queue    core.JobQueue         // Required: job queue
	Resolver *scoring.Resolver     // Required: scoring config resolver
	Worker   config.WorkerConfig   // Optional: supplies the default retry budget
	Logger   *slog.Logger          // Optional: structured logger
	Metrics  statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// JobService provides the enqueue and read paths for scoring jobs.
//
// Enqueue pins the active scoring configuration version onto the job, so a
// job queued under v1 still scores under v1 after v2 is published. The
// idempotency key derived here is what collapses redelivered or re-submitted
// work to a single committed result.
type JobService struct {
	jobs        core.JobRepository
	results     core.ResultRepository
	queue       core.JobQueue
	resolver    *scoring.Resolver
	maxAttempts int
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Results == nil {
		return nil, errors.New("ResultRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("JobQueue is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("scoring Resolver is required")
	}

	maxAttempts := opts.Worker.DefaultMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		jobs:        opts.Jobs,
		results:     opts.Results,
		queue:       opts.Queue,
		resolver:    opts.Resolver,
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     opts.Metrics,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Enqueue validates the request, persists a pending job pinned to the active
// configuration version, and pushes it onto the queue.
//
// The job row is written before the queue push. If the push fails the row
// stays pending and the caller gets an error; a retried request derives the
// same idempotency key, so the eventual outcome is still a single result.
func (s *JobService) Enqueue(ctx context.Context, req *model.EnqueueRequest) (*model.ScoringJob, error) {
	if req == nil {
		return nil, errors.New("enqueue request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate enqueue request: %w", err)
	}

	cfg := s.resolver.Active()
	maxAttempts := req.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = s.maxAttempts
	}

	job := &model.ScoringJob{
		ID:             uuid.NewString(),
		ItemRef:        req.ItemRef,
		Document:       req.Document,
		ConfigVersion:  cfg.Version,
		IdempotencyKey: model.DeriveIdempotencyKey(req.ItemRef, cfg.Version, req.CallerKey),
		Status:         model.JobStatusPending,
		MaxAttempts:    maxAttempts,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create scoring job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
			Stage:         metrics.StageEnqueue,
			Transition:    "enqueue",
			Result:        metrics.ResultError,
			ConfigVersion: job.ConfigVersion,
			Err:           err,
		})
		return nil, fmt.Errorf("enqueue scoring job: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "job enqueued",
			"job_id", job.ID,
			"item_ref", job.ItemRef,
			"config_version", job.ConfigVersion,
		)
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Stage:         metrics.StageEnqueue,
		Transition:    "enqueue",
		Result:        metrics.ResultSuccess,
		ConfigVersion: job.ConfigVersion,
	})

	return job, nil
}

// GetJob fetches a job row by ID.
func (s *JobService) GetJob(ctx context.Context, id string) (*model.ScoringJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// GetStatus reports the job's current status along with its committed result
// when one exists. A terminal status here is definitive.
func (s *JobService) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	return s.results.GetStatus(ctx, jobID)
}

// Stats reports job counts per state.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	return s.jobs.Stats(ctx)
}

// History returns the item's committed score timeline, newest first.
func (s *JobService) History(ctx context.Context, itemRef string, limit int) ([]model.ScoreHistoryEntry, error) {
	return s.results.HistoryForItem(ctx, itemRef, limit)
}

// QueueDepth reports the pending and processing list lengths.
func (s *JobService) QueueDepth(ctx context.Context) (pending, processing int64, err error) {
	pending, processing, err = s.queue.Depth(ctx)
	if err != nil {
		return 0, 0, err
	}
	metrics.EmitQueueDepth(s.metrics, pending, processing)
	return pending, processing, nil
}
