package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/core"
	obserrors "github.com/gradlift/ranking-go/internal/observability/errors"
	"github.com/gradlift/ranking-go/internal/observability/metrics"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Jobs       core.JobRepository      // Required: job repository
	Deliveries core.DeliveryRepository // Required: webhook delivery repository
	Rankings   core.RankingRepository  // Required: audit log pruning
	Queue      core.JobQueue           // Required: expired lease requeueing
	Config     config.ReaperConfig     // Required: reaper configuration
	Logger     *slog.Logger            // Optional: structured logger
	Metrics    statsd.Sink             // Optional: metrics sink (StatsD-compatible)
}

// ReaperService keeps the pipeline from accumulating stuck or stale state.
//
// This service manages:
// - Requeueing queue entries whose visibility lease expired (crashed workers).
// - Resetting in_progress jobs that never finished back to pending.
// - Deleting old terminal jobs to prevent database bloat.
// - Deleting finished webhook deliveries and old ranking audit rows.
type ReaperService struct {
	jobs       core.JobRepository
	deliveries core.DeliveryRepository
	rankings   core.RankingRepository
	queue      core.JobQueue
	config     config.ReaperConfig
	logger     *slog.Logger
	metrics    statsd.Sink
	now        func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Deliveries == nil {
		return nil, errors.New("DeliveryRepository is required")
	}
	if opts.Rankings == nil {
		return nil, errors.New("RankingRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("JobQueue is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"stale_after", opts.Config.StaleAfter,
			"completed_max_age", opts.Config.CompletedMaxAge,
			"delivery_max_age", opts.Config.DeliveryMaxAge,
		)
	}

	return &ReaperService{
		jobs:       opts.Jobs,
		deliveries: opts.Deliveries,
		rankings:   opts.Rankings,
		queue:      opts.Queue,
		config:     opts.Config,
		logger:     logger,
		metrics:    opts.Metrics,
		now:        time.Now,
	}, nil
}

// MustNewReaperService constructs a new ReaperService and panics on error.
func MustNewReaperService(opts ReaperServiceOptions) *ReaperService {
	svc, err := NewReaperService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ReaperService: %v", err))
	}
	return svc
}

// Run starts the reaper loop and runs until the context is cancelled.
// It performs cleanup operations at the configured interval.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run cleanup immediately after jitter
	if err := s.RunCleanup(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	delay := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

// runLoop runs the cleanup loop until context is cancelled.
func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			// Return nil on graceful shutdown to avoid treating it as a failure
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunCleanup(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
				// Continue running despite errors
			}
		}
	}
}

// RunCleanup performs all cleanup operations once.
func (s *ReaperService) RunCleanup(ctx context.Context) error {
	start := s.now()
	var (
		errs               []error
		allContextCanceled = true
		metricsData        = cleanupMetrics{}
	)

	steps := []cleanupStep{
		{
			fn:        s.requeueExpiredLeases,
			label:     "requeue expired leases",
			count:     &metricsData.RequeuedCount,
			metricErr: &metricsData.RequeuedErr,
		},
		{
			fn:        s.resetStaleJobs,
			label:     "reset stale jobs",
			count:     &metricsData.StaleCount,
			metricErr: &metricsData.StaleErr,
		},
		{
			fn:        s.pruneTerminalJobs,
			label:     "prune terminal jobs",
			count:     &metricsData.TerminalCount,
			metricErr: &metricsData.TerminalErr,
		},
		{
			fn:        s.pruneFinishedDeliveries,
			label:     "prune finished deliveries",
			count:     &metricsData.DeliveryCount,
			metricErr: &metricsData.DeliveryErr,
		},
		{
			fn:        s.pruneAuditLog,
			label:     "prune audit log",
			count:     &metricsData.AuditCount,
			metricErr: &metricsData.AuditErr,
		},
	}

	for _, step := range steps {
		outcome := s.executeCleanupStep(ctx, step.fn, step.label)
		*step.count = outcome.count
		*step.metricErr = outcome.metricErr
		if outcome.aggregateErr != nil {
			errs = append(errs, outcome.aggregateErr)
			allContextCanceled = allContextCanceled && outcome.canceled
		}
	}

	metricsData.Elapsed = s.now().Sub(start)
	s.emitCleanupMetrics(metricsData)

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled && isContextCancellation(joined) {
			return context.Canceled
		}
		return fmt.Errorf("cleanup failed: %w", joined)
	}

	return nil
}

type cleanupFunc func(context.Context) (int64, error)

type cleanupStep struct {
	fn        cleanupFunc
	label     string
	count     *int64
	metricErr *error
}

type cleanupStepOutcome struct {
	count        int64
	metricErr    error
	aggregateErr error
	canceled     bool
}

func (s *ReaperService) executeCleanupStep(
	ctx context.Context,
	fn cleanupFunc,
	label string,
) cleanupStepOutcome {
	count, err := fn(ctx)
	outcome := cleanupStepOutcome{
		count:     count,
		metricErr: suppressContextCancellation(err),
		canceled:  isContextCancellation(err),
	}
	if err != nil {
		outcome.aggregateErr = fmt.Errorf("%s: %w", label, err)
	}
	return outcome
}

// requeueExpiredLeases returns crashed workers' jobs to the pending list.
func (s *ReaperService) requeueExpiredLeases(ctx context.Context) (int64, error) {
	count, err := s.queue.RequeueExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "requeued expired queue leases", "count", count)
	}
	return int64(count), nil
}

// resetStaleJobs returns in_progress jobs that never finished to pending.
// The queue side requeues the list entry; this keeps the database row in step.
func (s *ReaperService) resetStaleJobs(ctx context.Context) (int64, error) {
	count, err := s.jobs.ResetStale(ctx, s.config.StaleAfter)
	if err != nil {
		return 0, err
	}
	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "reset stale jobs to pending",
			"count", count,
			"stale_after", s.config.StaleAfter,
		)
	}
	return count, nil
}

// pruneTerminalJobs deletes completed and failed jobs older than the max age.
func (s *ReaperService) pruneTerminalJobs(ctx context.Context) (int64, error) {
	count, err := s.jobs.PruneTerminal(ctx, s.config.CompletedMaxAge)
	if err != nil {
		return 0, err
	}
	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "pruned terminal jobs",
			"count", count,
			"max_age", s.config.CompletedMaxAge,
		)
	}
	return count, nil
}

// pruneFinishedDeliveries deletes delivered and exhausted webhook rows older
// than the max age.
func (s *ReaperService) pruneFinishedDeliveries(ctx context.Context) (int64, error) {
	count, err := s.deliveries.PruneFinished(ctx, s.config.DeliveryMaxAge)
	if err != nil {
		return 0, err
	}
	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "pruned finished deliveries",
			"count", count,
			"max_age", s.config.DeliveryMaxAge,
		)
	}
	return count, nil
}

// pruneAuditLog deletes ranking audit rows older than the retention window.
func (s *ReaperService) pruneAuditLog(ctx context.Context) (int64, error) {
	count, err := s.rankings.PruneAuditLog(ctx, s.config.AuditRetainDays)
	if err != nil {
		return 0, err
	}
	if count > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "pruned ranking audit log",
			"count", count,
			"retain_days", s.config.AuditRetainDays,
		)
	}
	return count, nil
}

type cleanupMetrics struct {
	RequeuedCount int64
	RequeuedErr   error
	StaleCount    int64
	StaleErr      error
	TerminalCount int64
	TerminalErr   error
	DeliveryCount int64
	DeliveryErr   error
	AuditCount    int64
	AuditErr      error
	Elapsed       time.Duration
}

func (s *ReaperService) emitCleanupMetrics(m cleanupMetrics) {
	if s.metrics == nil {
		return
	}

	totalCount := m.RequeuedCount + m.StaleCount + m.TerminalCount + m.DeliveryCount + m.AuditCount
	firstErr := firstError(m.RequeuedErr, m.StaleErr, m.TerminalErr, m.DeliveryErr, m.AuditErr)

	result := metrics.ResultSuccess
	if firstErr != nil {
		result = metrics.ResultError
	} else if totalCount == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"result": result,
	}

	if firstErr != nil {
		if class := obserrors.Classify(firstErr); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup", 1, tags)

	if m.Elapsed > 0 {
		s.metrics.Timing("reaper.cleanup_duration", m.Elapsed, metrics.CloneTags(tags))
	}

	s.emitCleanupOperationMetric("requeue_leases", m.RequeuedCount, m.RequeuedErr)
	s.emitCleanupOperationMetric("reset_stale", m.StaleCount, m.StaleErr)
	s.emitCleanupOperationMetric("prune_terminal", m.TerminalCount, m.TerminalErr)
	s.emitCleanupOperationMetric("prune_deliveries", m.DeliveryCount, m.DeliveryErr)
	s.emitCleanupOperationMetric("prune_audit", m.AuditCount, m.AuditErr)

	if firstErr == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(s.now().Unix()), nil)
	}
}

func (s *ReaperService) emitCleanupOperationMetric(operation string, count int64, err error) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if count == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"operation": operation,
		"result":    result,
	}

	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup_operation", 1, tags)

	if err == nil && count > 0 {
		s.metrics.Count("reaper.rows_processed", count, metrics.CloneTags(tags))
	}
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
