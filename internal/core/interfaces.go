package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/gradlift/ranking-go/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// JobRepository defines the interface for scoring job data operations.
type JobRepository interface {
	Create(ctx context.Context, job *model.ScoringJob) error
	GetByID(ctx context.Context, id string) (*model.ScoringJob, error)
	MarkInProgress(ctx context.Context, id string) (*model.ScoringJob, error)
	MarkPending(ctx context.Context, id, lastError string) error
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id, lastError string) error
	// Delete removes a row that was never handed to a worker, such as a
	// rescore job suppressed by the debounce key.
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.JobStats, error)
	ResetStale(ctx context.Context, threshold time.Duration) (int64, error)
	PruneTerminal(ctx context.Context, threshold time.Duration) (int64, error)
}

// ResultRepository defines the interface for committed score results.
type ResultRepository interface {
	// CommitCompletion persists the result, marks the job completed, appends
	// score history and refreshes the item ranking in one transaction. A
	// uniqueness conflict on the idempotency key surfaces as
	// data.ErrDuplicateResult.
	CommitCompletion(ctx context.Context, result *model.ScoreResult) error
	GetByIdempotencyKey(ctx context.Context, key string) (*model.ScoreResult, error)
	GetByJobID(ctx context.Context, jobID string) (*model.ScoreResult, error)
	GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error)
	HistoryForItem(ctx context.Context, itemRef string, limit int) ([]model.ScoreHistoryEntry, error)
}

// DeliveryRepository defines the interface for webhook delivery bookkeeping.
type DeliveryRepository interface {
	Create(ctx context.Context, d *model.WebhookDelivery) error
	RecordAttempt(ctx context.Context, id string, attemptErr error) error
	GetByID(ctx context.Context, id string) (*model.WebhookDelivery, error)
	ListExhausted(ctx context.Context, limit int) ([]model.WebhookDelivery, error)
	ListRetryable(ctx context.Context, limit int) ([]model.WebhookDelivery, error)
	PruneFinished(ctx context.Context, threshold time.Duration) (int64, error)
}

// RescoreRepository defines the interface for periodic rescore policies.
type RescoreRepository interface {
	Upsert(ctx context.Context, p *model.RescorePolicy) error
	SetActive(ctx context.Context, itemRef string, active bool) error
	FindDueTx(ctx context.Context, tx *sql.Tx, now time.Time, limit int) ([]model.RescorePolicy, error)
	MarkQueuedTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) (bool, error)
	TryWithScheduleLock(ctx context.Context, name string, fn func(context.Context, *sql.Tx) error) (bool, error)
}

// RankingRepository defines the interface for derived ranking state.
type RankingRepository interface {
	RecomputeRanks(ctx context.Context) (int64, error)
	RefreshGlobalStats(ctx context.Context) error
	RebuildHistogram(ctx context.Context, bucketWidth float64) error
	GetRanking(ctx context.Context, itemRef string) (*model.RankingRow, error)
	TopRankings(ctx context.Context, limit int) ([]model.RankingRow, error)
	GetGlobalStats(ctx context.Context) (*model.GlobalRankingStats, error)
	GetHistogram(ctx context.Context) ([]model.HistogramBucket, error)
	PruneAuditLog(ctx context.Context, retainDays int) (int64, error)
}

// ScoreCacheRepository defines the interface for the Redis read cache over
// ranking state.
type ScoreCacheRepository interface {
	GetRanking(ctx context.Context, itemRef string) (*model.RankingRow, error)
	SetRanking(ctx context.Context, row *model.RankingRow) error
	InvalidateItem(ctx context.Context, itemRef string) (bool, error)
	GetGlobalStats(ctx context.Context) (*model.GlobalRankingStats, error)
	SetGlobalStats(ctx context.Context, stats *model.GlobalRankingStats) error
	InvalidateGlobalStats(ctx context.Context) error
	Health(ctx context.Context) error
}
