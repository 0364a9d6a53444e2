package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
	"github.com/gradlift/ranking-go/internal/testutil"
)

func TestJobRepo_CreateAndGet(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		job := testutil.NewScoringJob().Build()
		require.NoError(t, repo.Create(ctx, job))

		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, job.ItemRef, got.ItemRef)
		assert.Equal(t, job.IdempotencyKey, got.IdempotencyKey)
		assert.Equal(t, model.JobStatusPending, got.Status)
		assert.Equal(t, 0, got.AttemptCount)
		assert.Equal(t, 3, got.MaxAttempts)
		assert.Nil(t, got.StartedAt)
		assert.Nil(t, got.CompletedAt)
	})
}

func TestJobRepo_GetByID_NotFound(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)

		_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepo_MarkInProgress(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		t.Run("claims a pending job and increments attempts", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))

			claimed, err := repo.MarkInProgress(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusInProgress, claimed.Status)
			assert.Equal(t, 1, claimed.AttemptCount)
			require.NotNil(t, claimed.StartedAt)
		})

		t.Run("reclaim after requeue increments again", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))

			_, err := repo.MarkInProgress(ctx, job.ID)
			require.NoError(t, err)
			claimed, err := repo.MarkInProgress(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, claimed.AttemptCount)
		})

		t.Run("completed job cannot be claimed", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))
			_, err := repo.MarkInProgress(ctx, job.ID)
			require.NoError(t, err)
			require.NoError(t, repo.Complete(ctx, job.ID))

			_, err = repo.MarkInProgress(ctx, job.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsNotFound(err))
		})
	})
}

func TestJobRepo_MarkPending(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		job := testutil.NewScoringJob().Build()
		require.NoError(t, repo.Create(ctx, job))
		_, err := repo.MarkInProgress(ctx, job.ID)
		require.NoError(t, err)

		require.NoError(t, repo.MarkPending(ctx, job.ID, "scoring backend timeout"))

		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, got.Status)
		require.NotNil(t, got.LastError)
		assert.Equal(t, "scoring backend timeout", *got.LastError)
		// Attempt count survives the requeue.
		assert.Equal(t, 1, got.AttemptCount)
	})
}

func TestJobRepo_Complete(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		t.Run("marks job completed with timestamp", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))
			_, err := repo.MarkInProgress(ctx, job.ID)
			require.NoError(t, err)

			require.NoError(t, repo.Complete(ctx, job.ID))

			got, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusCompleted, got.Status)
			require.NotNil(t, got.CompletedAt)
		})

		t.Run("complete is idempotent", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))
			require.NoError(t, repo.Complete(ctx, job.ID))

			first, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)

			require.NoError(t, repo.Complete(ctx, job.ID))
			second, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			// completed_at is not overwritten on the second call
			assert.Equal(t, first.CompletedAt.UTC(), second.CompletedAt.UTC())
		})

		t.Run("failed job cannot be completed", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))
			require.NoError(t, repo.Fail(ctx, job.ID, "malformed document"))

			err := repo.Complete(ctx, job.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsNotFound(err))
		})
	})
}

func TestJobRepo_Fail(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		t.Run("marks job failed with reason", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))

			require.NoError(t, repo.Fail(ctx, job.ID, "attempt budget exhausted"))

			got, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusFailed, got.Status)
			require.NotNil(t, got.LastError)
			assert.Equal(t, "attempt budget exhausted", *got.LastError)
		})

		t.Run("completed job cannot be failed", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))
			require.NoError(t, repo.Complete(ctx, job.ID))

			err := repo.Fail(ctx, job.ID, "late failure")
			require.Error(t, err)
			assert.True(t, apperrors.IsNotFound(err))

			got, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusCompleted, got.Status)
		})
	})
}

func TestJobRepo_Delete(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		t.Run("removes a pending row", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))

			require.NoError(t, repo.Delete(ctx, job.ID))

			_, err := repo.GetByID(ctx, job.ID)
			require.Error(t, err)
			assert.True(t, apperrors.IsNotFound(err))
		})

		t.Run("leaves a claimed job alone", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))
			_, err := repo.MarkInProgress(ctx, job.ID)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, job.ID))

			got, err := repo.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusInProgress, got.Status)
		})

		t.Run("missing row is a no-op", func(t *testing.T) {
			require.NoError(t, repo.Delete(ctx, "00000000-0000-0000-0000-000000000000"))
		})
	})
}

func TestJobRepo_Stats(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		for range 2 {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, repo.Create(ctx, job))
		}
		inProgress := testutil.NewScoringJob().Build()
		require.NoError(t, repo.Create(ctx, inProgress))
		_, err := repo.MarkInProgress(ctx, inProgress.ID)
		require.NoError(t, err)

		failed := testutil.NewScoringJob().Build()
		require.NoError(t, repo.Create(ctx, failed))
		require.NoError(t, repo.Fail(ctx, failed.ID, "boom"))

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Pending)
		assert.Equal(t, 1, stats.InProgress)
		assert.Equal(t, 0, stats.Completed)
		assert.Equal(t, 1, stats.Failed)
	})
}

func TestJobRepo_ResetStale(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour)
		staleRepo := NewJobRepoWithTimeProvider(db, NewFixedTimeProvider(past))

		stale := testutil.NewScoringJob().Build()
		require.NoError(t, staleRepo.Create(ctx, stale))
		_, err := staleRepo.MarkInProgress(ctx, stale.ID)
		require.NoError(t, err)

		repo := NewJobRepo(db)
		fresh := testutil.NewScoringJob().Build()
		require.NoError(t, repo.Create(ctx, fresh))
		_, err = repo.MarkInProgress(ctx, fresh.ID)
		require.NoError(t, err)

		n, err := repo.ResetStale(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.GetByID(ctx, stale.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, got.Status)

		got, err = repo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusInProgress, got.Status)
	})
}

func TestJobRepo_PruneTerminal(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		past := time.Now().Add(-30 * 24 * time.Hour)
		oldRepo := NewJobRepoWithTimeProvider(db, NewFixedTimeProvider(past))

		done := testutil.NewScoringJob().Build()
		require.NoError(t, oldRepo.Create(ctx, done))
		require.NoError(t, oldRepo.Complete(ctx, done.ID))

		repo := NewJobRepo(db)
		pending := testutil.NewScoringJob().Build()
		require.NoError(t, repo.Create(ctx, pending))

		n, err := repo.PruneTerminal(ctx, 7*24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.GetByID(ctx, done.ID)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = repo.GetByID(ctx, pending.ID)
		require.NoError(t, err)
	})
}
