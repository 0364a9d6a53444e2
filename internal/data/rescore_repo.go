package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/gradlift/ranking-go/internal/data/pgxutil"
	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
)

// RescoreRepo provides database operations for periodic rescore policies.
type RescoreRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRescoreRepo creates a new RescoreRepo instance with the given database connection.
func NewRescoreRepo(db *sql.DB) *RescoreRepo {
	return &RescoreRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewRescoreRepoWithTimeProvider creates a RescoreRepo with a custom TimeProvider (useful for testing).
func NewRescoreRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *RescoreRepo {
	return &RescoreRepo{
		DB:           db,
		timeProvider: timeProvider,
	}
}

// fnvHash computes FNV-1a 64-bit hash of the given string for use as advisory lock key.
func fnvHash(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	// Advisory locks accept BIGINT; constrain the unsigned hash into int64 range before casting.
	u := h.Sum64()
	if u > uint64(math.MaxInt64) {
		u %= uint64(math.MaxInt64)
	}
	return int64(u) // #nosec G115 -- value is explicitly bounded to <= MaxInt64 before casting to int64.
}

const rescorePolicyColumns = `
  id,
  item_ref,
  document,
  EXTRACT(EPOCH FROM rescore_interval)::bigint AS interval_seconds,
  active,
  last_queued_at,
  created_at,
  updated_at
`

// Upsert creates or replaces the rescore policy for an item.
func (r *RescoreRepo) Upsert(ctx context.Context, p *model.RescorePolicy) error {
	if p == nil {
		return fmt.Errorf("policy is required")
	}
	if p.IntervalSeconds <= 0 {
		return apperrors.ValidationField("rescore interval must be positive", "interval_seconds")
	}
	now := r.timeProvider.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO rescore_policies (id, item_ref, document, rescore_interval, active, created_at, updated_at)
		VALUES ($1, $2, $3, make_interval(secs => $4), $5, $6, $6)
		ON CONFLICT (item_ref) DO UPDATE SET
			document = EXCLUDED.document,
			rescore_interval = EXCLUDED.rescore_interval,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.ItemRef, []byte(p.Document), p.IntervalSeconds, p.Active, now)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("upsert rescore policy: %w", err))
	}
	return nil
}

// SetActive toggles a policy on or off without touching its schedule.
func (r *RescoreRepo) SetActive(ctx context.Context, itemRef string, active bool) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE rescore_policies
		SET active = $2, updated_at = $3
		WHERE item_ref = $1
	`, itemRef, active, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("set rescore policy active: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("rescore policy for %s not found", itemRef)
	}
	return nil
}

// FindDueTx finds active policies that are due for requeueing. Uses
// FOR UPDATE SKIP LOCKED so concurrent schedulers never pick the same
// policies; pair it with MarkQueuedTx in the same transaction.
// A policy is due when last_queued_at IS NULL OR last_queued_at + interval <= now.
func (r *RescoreRepo) FindDueTx(
	ctx context.Context,
	tx *sql.Tx,
	now time.Time,
	limit int,
) ([]model.RescorePolicy, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT ` + rescorePolicyColumns + `
		FROM rescore_policies
		WHERE active
		  AND (last_queued_at IS NULL OR last_queued_at + rescore_interval <= $1)
		ORDER BY
			CASE WHEN last_queued_at IS NULL THEN 0 ELSE 1 END,
			last_queued_at ASC,
			created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, queryErr := tx.QueryContext(ctx, query, now.UTC(), limit)
	if queryErr != nil {
		return nil, fmt.Errorf("query due rescore policies: %w", queryErr)
	}
	defer func() {
		_ = rows.Close()
	}()

	var policies []model.RescorePolicy
	for rows.Next() {
		policy, scanErr := scanRescorePolicy(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan rescore policy: %w", scanErr)
		}
		policies = append(policies, policy)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate rescore policies: %w", rowsErr)
	}

	return policies, nil
}

// MarkQueuedTx updates last_queued_at within an existing transaction.
// Use this with FindDueTx so selection and update happen under the same locks.
func (r *RescoreRepo) MarkQueuedTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE rescore_policies
		SET last_queued_at = $2, updated_at = $3
		WHERE id = $1
	`, id, now.UTC(), r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update rescore policy (tx): %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected (tx): %w", err)
	}

	return rowsAffected > 0, nil
}

// TryWithScheduleLock attempts to acquire an advisory lock for the given
// schedule name. Uses FNV-1a 64-bit hash of the name for the lock key.
// If the lock is acquired, executes fn within the same transaction.
// Return semantics:
//   - (false, nil): lock not acquired; fn was not executed
//   - (true, nil): lock acquired; fn executed and succeeded
//   - (true, err): lock acquired; fn executed and failed with err
func (r *RescoreRepo) TryWithScheduleLock(
	ctx context.Context,
	name string,
	fn func(context.Context, *sql.Tx) error,
) (bool, error) {
	lockKey := fnvHash(name)

	var locked bool
	var fnErr error

	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1)", lockKey).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock for %s: %w", name, err)
			}

			if !locked {
				return nil
			}

			// Commit the transaction even when fn fails; the error is
			// surfaced separately so MarkQueuedTx progress is kept.
			fnErr = fn(ctx, tx)
			return nil
		},
	})
	if err != nil {
		return false, err
	}

	return locked, fnErr
}

func scanRescorePolicy(rows *sql.Rows) (model.RescorePolicy, error) {
	var (
		p            model.RescorePolicy
		document     []byte
		interval     sql.NullInt64
		lastQueuedAt sql.NullTime
	)
	err := rows.Scan(
		&p.ID,
		&p.ItemRef,
		&document,
		&interval,
		&p.Active,
		&lastQueuedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return model.RescorePolicy{}, err
	}
	if document != nil {
		p.Document = json.RawMessage(document)
	}
	if interval.Valid {
		p.IntervalSeconds = interval.Int64
	}
	if lastQueuedAt.Valid {
		t := lastQueuedAt.Time
		p.LastQueuedAt = &t
	}
	return p, nil
}
