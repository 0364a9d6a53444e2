// Package data provides the PostgreSQL and Redis persistence layer for the
// ranking pipeline.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
)

const jobColumns = `
  id,
  item_ref,
  document,
  config_version,
  idempotency_key,
  status,
  attempt_count,
  max_attempts,
  last_error,
  enqueued_at,
  started_at,
  completed_at,
  updated_at
`

// JobRepo provides database operations for scoring job rows. The queue owns
// delivery; these rows are the durable record of each job's lifecycle.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo instance with the given database connection.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewJobRepoWithTimeProvider creates a JobRepo with a custom TimeProvider (useful for testing).
func NewJobRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *JobRepo {
	return &JobRepo{DB: db, timeProvider: tp}
}

// Create inserts a new pending job row.
func (r *JobRepo) Create(ctx context.Context, job *model.ScoringJob) error {
	if job == nil {
		return errors.New("job is required")
	}
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is required")
	}

	now := r.timeProvider.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO scoring_jobs (
			id, item_ref, document, config_version, idempotency_key,
			status, attempt_count, max_attempts, enqueued_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`,
		job.ID, job.ItemRef, []byte(job.Document), job.ConfigVersion, job.IdempotencyKey,
		model.JobStatusPending, 0, job.MaxAttempts, now,
	)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("insert scoring job: %w", err))
	}
	return nil
}

// GetByID fetches a job row.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.ScoringJob, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM scoring_jobs
		WHERE id = $1
	`, id)
	return scanJob(row)
}

// MarkInProgress transitions a claimed job to in_progress and counts the
// delivery attempt. The status predicate keeps a redelivered message from
// reviving a job another worker already finished; callers get NotFound when
// the job is already terminal.
func (r *JobRepo) MarkInProgress(ctx context.Context, id string) (*model.ScoringJob, error) {
	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		UPDATE scoring_jobs
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    started_at = COALESCE(started_at, $3),
		    updated_at = $3
		WHERE id = $1
		  AND status IN ('pending', 'in_progress')
		RETURNING `+jobColumns+`
	`, id, model.JobStatusInProgress, now)
	return scanJob(row)
}

// MarkPending returns a nacked job to pending, recording the transient error.
func (r *JobRepo) MarkPending(ctx context.Context, id, lastError string) error {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE scoring_jobs
		SET status = $2,
		    last_error = NULLIF($3, ''),
		    updated_at = $4
		WHERE id = $1
		  AND status = 'in_progress'
	`, id, model.JobStatusPending, lastError, now)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("mark job pending: %w", err))
	}
	return requireRowAffected(res, id)
}

// Complete transitions a job to completed. Used on the duplicate-result path;
// the normal path commits the same transition inside the result transaction
// via CompleteInTx.
func (r *JobRepo) Complete(ctx context.Context, id string) error {
	return r.completeExec(ctx, r.DB, id)
}

// CompleteInTx transitions a job to completed within an existing transaction.
func (r *JobRepo) CompleteInTx(ctx context.Context, tx *sql.Tx, id string) error {
	return r.completeExec(ctx, tx, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *JobRepo) completeExec(ctx context.Context, db execer, id string) error {
	now := r.timeProvider.Now().UTC()
	res, err := db.ExecContext(ctx, `
		UPDATE scoring_jobs
		SET status = $2,
		    last_error = NULL,
		    completed_at = COALESCE(completed_at, $3),
		    updated_at = $3
		WHERE id = $1
		  AND status != 'failed'
	`, id, model.JobStatusCompleted, now)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("complete job: %w", err))
	}
	return requireRowAffected(res, id)
}

// Fail transitions a job to failed with a terminal error message.
func (r *JobRepo) Fail(ctx context.Context, id, lastError string) error {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE scoring_jobs
		SET status = $2,
		    last_error = NULLIF($3, ''),
		    completed_at = COALESCE(completed_at, $4),
		    updated_at = $4
		WHERE id = $1
		  AND status != 'completed'
	`, id, model.JobStatusFailed, lastError, now)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("fail job: %w", err))
	}
	return requireRowAffected(res, id)
}

// Delete removes a pending job row that never reached a worker. Rows that
// have progressed past pending are left alone; deleting an already-gone row
// is a no-op.
func (r *JobRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM scoring_jobs
		WHERE id = $1
		  AND status = 'pending'
	`, id)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("delete job: %w", err))
	}
	return nil
}

// Stats returns counts of jobs in each state.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var stats model.JobStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM scoring_jobs
	`).Scan(&stats.Pending, &stats.InProgress, &stats.Completed, &stats.Failed)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("job stats: %w", err))
	}
	return &stats, nil
}

// ResetStale returns in_progress rows untouched for longer than threshold to
// pending. Pairs with the queue-side requeue: the reaper calls both so a
// crashed worker's job becomes consistent again in one pass.
func (r *JobRepo) ResetStale(ctx context.Context, threshold time.Duration) (int64, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE scoring_jobs
		SET status = 'pending',
		    updated_at = $1
		WHERE status = 'in_progress'
		  AND updated_at < $2
	`, now, now.Add(-threshold))
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("reset stale jobs: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// PruneTerminal deletes completed and failed jobs older than threshold.
// Their results and deliveries cascade with the job rows.
func (r *JobRepo) PruneTerminal(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := r.timeProvider.Now().UTC().Add(-threshold)
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM scoring_jobs
		WHERE status IN ('completed', 'failed')
		  AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("prune terminal jobs: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// requireRowAffected maps a zero-row update to NotFound so callers can tell a
// missed status predicate from a plain success.
func requireRowAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("job %s not found or not in an eligible state", id)
	}
	return nil
}

// rowScanner is the common subset of *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.ScoringJob, error) {
	var (
		job      model.ScoringJob
		document []byte
	)
	err := row.Scan(
		&job.ID,
		&job.ItemRef,
		&document,
		&job.ConfigVersion,
		&job.IdempotencyKey,
		&job.Status,
		&job.AttemptCount,
		&job.MaxAttempts,
		&job.LastError,
		&job.EnqueuedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("scan scoring job: %w", err))
	}
	job.Document = document
	return &job, nil
}
