package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlift/ranking-go/internal/data/pgxutil"
	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
	"github.com/gradlift/ranking-go/internal/testutil"
)

func testPolicy(itemRef string, intervalSeconds int64) *model.RescorePolicy {
	return &model.RescorePolicy{
		ID:              uuid.NewString(),
		ItemRef:         itemRef,
		Document:        json.RawMessage(testutil.DefaultScoringDocument),
		IntervalSeconds: intervalSeconds,
		Active:          true,
	}
}

func TestRescoreRepo_Upsert(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRescoreRepo(db)
		ctx := context.Background()

		t.Run("creates and replaces by item ref", func(t *testing.T) {
			p := testPolicy("cand-upsert", 3600)
			require.NoError(t, repo.Upsert(ctx, p))

			replacement := testPolicy("cand-upsert", 7200)
			require.NoError(t, repo.Upsert(ctx, replacement))

			due, err := findDue(t, repo, time.Now(), 10)
			require.NoError(t, err)
			require.Len(t, due, 1)
			assert.Equal(t, int64(7200), due[0].IntervalSeconds)
		})

		t.Run("rejects non-positive interval", func(t *testing.T) {
			p := testPolicy("cand-bad", 0)
			err := repo.Upsert(ctx, p)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	})
}

// findDue wraps FindDueTx in a throwaway transaction for assertions.
func findDue(t *testing.T, repo *RescoreRepo, now time.Time, limit int) ([]model.RescorePolicy, error) {
	t.Helper()
	var out []model.RescorePolicy
	err := pgxutil.WithSQLTx(context.Background(), repo.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			policies, err := repo.FindDueTx(context.Background(), tx, now, limit)
			if err != nil {
				return err
			}
			out = policies
			return nil
		},
	})
	return out, err
}

func TestRescoreRepo_FindDueTx(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRescoreRepo(db)
		ctx := context.Background()
		now := time.Now()

		neverQueued := testPolicy("cand-never", 3600)
		require.NoError(t, repo.Upsert(ctx, neverQueued))

		overdue := testPolicy("cand-overdue", 3600)
		require.NoError(t, repo.Upsert(ctx, overdue))
		markQueuedAt(t, db, overdue.ItemRef, now.Add(-2*time.Hour))

		recent := testPolicy("cand-recent", 3600)
		require.NoError(t, repo.Upsert(ctx, recent))
		markQueuedAt(t, db, recent.ItemRef, now.Add(-time.Minute))

		inactive := testPolicy("cand-inactive", 3600)
		require.NoError(t, repo.Upsert(ctx, inactive))
		markQueuedAt(t, db, inactive.ItemRef, now.Add(-2*time.Hour))
		require.NoError(t, repo.SetActive(ctx, inactive.ItemRef, false))

		due, err := findDue(t, repo, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 2)
		// Never-queued policies sort ahead of overdue ones.
		assert.Equal(t, "cand-never", due[0].ItemRef)
		assert.Equal(t, "cand-overdue", due[1].ItemRef)
	})
}

func TestRescoreRepo_MarkQueuedTx(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRescoreRepo(db)
		ctx := context.Background()
		now := time.Now()

		p := testPolicy("cand-mark", 3600)
		require.NoError(t, repo.Upsert(ctx, p))

		err := pgxutil.WithSQLTx(ctx, db, pgxutil.SQLTxConfig{
			Fn: func(tx *sql.Tx) error {
				due, err := repo.FindDueTx(ctx, tx, now, 10)
				if err != nil {
					return err
				}
				require.Len(t, due, 1)

				updated, err := repo.MarkQueuedTx(ctx, tx, due[0].ID, now)
				require.NoError(t, err)
				assert.True(t, updated)
				return nil
			},
		})
		require.NoError(t, err)

		due, err := findDue(t, repo, now, 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		// Due again once the interval elapses.
		due, err = findDue(t, repo, now.Add(2*time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
	})
}

func TestRescoreRepo_TryWithScheduleLock(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRescoreRepo(db)
		ctx := context.Background()

		t.Run("lock acquired and fn executed", func(t *testing.T) {
			var ran bool
			locked, err := repo.TryWithScheduleLock(ctx, "rescore-pass", func(ctx context.Context, tx *sql.Tx) error {
				ran = true
				return nil
			})
			require.NoError(t, err)
			assert.True(t, locked)
			assert.True(t, ran)
		})

		t.Run("held lock skips fn", func(t *testing.T) {
			// Hold the advisory lock in a separate transaction.
			tx, err := db.BeginTx(ctx, nil)
			require.NoError(t, err)
			defer func() {
				_ = tx.Rollback()
			}()
			var held bool
			require.NoError(t, tx.QueryRowContext(ctx,
				"SELECT pg_try_advisory_xact_lock($1)", fnvHash("rescore-pass")).Scan(&held))
			require.True(t, held)

			var ran bool
			locked, err := repo.TryWithScheduleLock(ctx, "rescore-pass", func(ctx context.Context, tx *sql.Tx) error {
				ran = true
				return nil
			})
			require.NoError(t, err)
			assert.False(t, locked)
			assert.False(t, ran)
		})
	})
}

// markQueuedAt backdates last_queued_at directly for test setup.
func markQueuedAt(t *testing.T, db *sql.DB, itemRef string, at time.Time) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"UPDATE rescore_policies SET last_queued_at = $2 WHERE item_ref = $1", itemRef, at.UTC())
	require.NoError(t, err)
}
