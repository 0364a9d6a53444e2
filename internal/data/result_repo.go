package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gradlift/ranking-go/internal/data/pgxutil"
	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
)

// ErrDuplicateResult is returned when a result insert loses the uniqueness
// race on idempotency_key. It is the expected outcome of concurrent
// redelivery and callers treat it as "already completed", not a failure.
var ErrDuplicateResult = errors.New("result already committed for idempotency key")

const resultColumns = `
  id,
  job_id,
  item_ref,
  idempotency_key,
  score,
  breakdown,
  config_version,
  input_checksum,
  compute_run_id,
  computed_at
`

// ResultRepo provides database operations for committed score results and the
// derived per-item tables written alongside them.
type ResultRepo struct {
	DB           *sql.DB
	jobs         *JobRepo
	timeProvider TimeProvider
}

// NewResultRepo creates a ResultRepo sharing the job repo's transaction helpers.
func NewResultRepo(db *sql.DB, jobs *JobRepo) *ResultRepo {
	return &ResultRepo{DB: db, jobs: jobs, timeProvider: &RealTimeProvider{}}
}

// NewResultRepoWithTimeProvider creates a ResultRepo with a custom TimeProvider.
func NewResultRepoWithTimeProvider(db *sql.DB, jobs *JobRepo, tp TimeProvider) *ResultRepo {
	return &ResultRepo{DB: db, jobs: jobs, timeProvider: tp}
}

// CommitCompletion commits a scoring outcome in a single transaction: the
// result row, the job's completed status, a history entry, the item's current
// ranking score, and an audit record. The uniqueness constraint on
// idempotency_key decides races between workers holding the same job; the
// loser gets ErrDuplicateResult and no partial writes.
func (r *ResultRepo) CommitCompletion(ctx context.Context, result *model.ScoreResult) error {
	if result == nil {
		return errors.New("result is required")
	}

	now := r.timeProvider.Now().UTC()
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO score_results (
					id, job_id, item_ref, idempotency_key, score, breakdown,
					config_version, input_checksum, compute_run_id, computed_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`,
				result.ID, result.JobID, result.ItemRef, result.IdempotencyKey,
				result.Score, []byte(result.Breakdown), result.ConfigVersion,
				result.InputChecksum, result.ComputeRunID, result.ComputedAt,
			); err != nil {
				return fmt.Errorf("insert score result: %w", err)
			}

			if err := r.jobs.CompleteInTx(ctx, tx, result.JobID); err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO score_history (item_ref, score, config_version, compute_run_id, computed_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (item_ref, computed_at) DO NOTHING
			`, result.ItemRef, result.Score, result.ConfigVersion, result.ComputeRunID, result.ComputedAt); err != nil {
				return fmt.Errorf("append score history: %w", err)
			}

			// Rank stays NULL until the next cron pass recomputes positions.
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO item_rankings (item_ref, composite, config_version, compute_run_id, updated_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (item_ref) DO UPDATE
				SET composite = EXCLUDED.composite,
				    config_version = EXCLUDED.config_version,
				    compute_run_id = EXCLUDED.compute_run_id,
				    updated_at = EXCLUDED.updated_at
			`, result.ItemRef, result.Score, result.ConfigVersion, result.ComputeRunID, now); err != nil {
				return fmt.Errorf("upsert item ranking: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO ranking_audit_log (item_ref, job_id, action, detail)
				VALUES ($1, $2, 'score_committed', jsonb_build_object(
					'score', $3::numeric,
					'config_version', $4::text,
					'compute_run_id', $5::uuid
				))
			`, result.ItemRef, result.JobID, result.Score, result.ConfigVersion, result.ComputeRunID); err != nil {
				return fmt.Errorf("append audit log: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateResult, result.IdempotencyKey)
		}
		return apperrors.MapDBError(err)
	}
	return nil
}

// GetByIdempotencyKey fetches the committed result for a key. Returns a
// NotFound AppError when no result exists yet.
func (r *ResultRepo) GetByIdempotencyKey(ctx context.Context, key string) (*model.ScoreResult, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+resultColumns+`
		FROM score_results
		WHERE idempotency_key = $1
	`, key)
	return scanResult(row)
}

// GetByJobID fetches the committed result for a job.
func (r *ResultRepo) GetByJobID(ctx context.Context, jobID string) (*model.ScoreResult, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+resultColumns+`
		FROM score_results
		WHERE job_id = $1
	`, jobID)
	return scanResult(row)
}

// GetStatus returns the job's status joined with its result when completed.
func (r *ResultRepo) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := &model.JobStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		CompletedAt: job.CompletedAt,
		LastError:   job.LastError,
	}
	if job.Status == model.JobStatusCompleted {
		result, err := r.GetByJobID(ctx, jobID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		resp.Result = result
	}
	return resp, nil
}

// HistoryForItem returns an item's score timeline, newest first.
func (r *ResultRepo) HistoryForItem(ctx context.Context, itemRef string, limit int) ([]model.ScoreHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT item_ref, score, config_version, compute_run_id::text AS compute_run_id, computed_at
		FROM score_history
		WHERE item_ref = $1
		ORDER BY computed_at DESC
		LIMIT $2
	`

	var entries []model.ScoreHistoryEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, itemRef, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		collected, collectErr := pgx.CollectRows(rows, pgx.RowToStructByName[model.ScoreHistoryEntry])
		if collectErr != nil {
			return collectErr
		}
		entries = collected
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("query score history: %w", err))
	}
	return entries, nil
}

func scanResult(row rowScanner) (*model.ScoreResult, error) {
	var (
		result    model.ScoreResult
		breakdown []byte
	)
	err := row.Scan(
		&result.ID,
		&result.JobID,
		&result.ItemRef,
		&result.IdempotencyKey,
		&result.Score,
		&breakdown,
		&result.ConfigVersion,
		&result.InputChecksum,
		&result.ComputeRunID,
		&result.ComputedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("scan score result: %w", err))
	}
	result.Breakdown = breakdown
	return &result, nil
}
