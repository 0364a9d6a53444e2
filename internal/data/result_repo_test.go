package data

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
	"github.com/gradlift/ranking-go/internal/testutil"
)

func TestResultRepo_CommitCompletion(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		jobs := NewJobRepo(db)
		repo := NewResultRepo(db, jobs)
		ctx := context.Background()

		t.Run("commits result and completes job atomically", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, jobs.Create(ctx, job))
			_, err := jobs.MarkInProgress(ctx, job.ID)
			require.NoError(t, err)

			result := testutil.NewScoreResult(job).Build()
			require.NoError(t, repo.CommitCompletion(ctx, result))

			got, err := repo.GetByIdempotencyKey(ctx, job.IdempotencyKey)
			require.NoError(t, err)
			assert.Equal(t, result.ID, got.ID)
			assert.InDelta(t, result.Score, got.Score, 0.0005)

			updated, err := jobs.GetByID(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusCompleted, updated.Status)

			// Ranking row is written in the same transaction, rank unassigned.
			ranking, err := NewRankingRepo(db).GetRanking(ctx, job.ItemRef)
			require.NoError(t, err)
			assert.InDelta(t, result.Score, ranking.Composite, 0.0005)
			assert.Equal(t, 0, ranking.Rank)
		})

		t.Run("second commit with same key returns ErrDuplicateResult", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, jobs.Create(ctx, job))

			first := testutil.NewScoreResult(job).Build()
			require.NoError(t, repo.CommitCompletion(ctx, first))

			second := testutil.NewScoreResult(job).WithScore(12.345).Build()
			err := repo.CommitCompletion(ctx, second)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateResult))

			// The losing commit left no partial writes.
			got, err := repo.GetByIdempotencyKey(ctx, job.IdempotencyKey)
			require.NoError(t, err)
			assert.Equal(t, first.ID, got.ID)
		})

		t.Run("concurrent commits let exactly one win", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, jobs.Create(ctx, job))

			runner := testutil.NewConcurrentTestRunner(t, db)
			commit := func() error {
				return repo.CommitCompletion(ctx, testutil.NewScoreResult(job).Build())
			}
			errs := runner.RunConcurrent(commit, commit, commit)

			var winners, duplicates int
			for _, err := range errs {
				switch {
				case err == nil:
					winners++
				case errors.Is(err, ErrDuplicateResult):
					duplicates++
				default:
					t.Fatalf("unexpected commit error: %v", err)
				}
			}
			assert.Equal(t, 1, winners)
			assert.Equal(t, 2, duplicates)
		})
	})
}

func TestResultRepo_GetStatus(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		jobs := NewJobRepo(db)
		repo := NewResultRepo(db, jobs)
		ctx := context.Background()

		t.Run("pending job has no result", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, jobs.Create(ctx, job))

			status, err := repo.GetStatus(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusPending, status.Status)
			assert.Nil(t, status.Result)
		})

		t.Run("completed job carries its result", func(t *testing.T) {
			job := testutil.NewScoringJob().Build()
			require.NoError(t, jobs.Create(ctx, job))
			result := testutil.NewScoreResult(job).Build()
			require.NoError(t, repo.CommitCompletion(ctx, result))

			status, err := repo.GetStatus(ctx, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusCompleted, status.Status)
			require.NotNil(t, status.Result)
			assert.Equal(t, result.ID, status.Result.ID)
		})

		t.Run("unknown job returns not found", func(t *testing.T) {
			_, err := repo.GetStatus(ctx, uuid.NewString())
			require.Error(t, err)
			assert.True(t, apperrors.IsNotFound(err))
		})
	})
}

func TestResultRepo_HistoryForItem(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		jobs := NewJobRepo(db)
		repo := NewResultRepo(db, jobs)
		ctx := context.Background()

		itemRef := "cand-history"
		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := range 3 {
			job := testutil.NewScoringJob().
				WithItemRef(itemRef).
				WithIdempotencyKey(uuid.NewString()).
				Build()
			require.NoError(t, jobs.Create(ctx, job))
			result := testutil.NewScoreResult(job).
				WithScore(float64(50 + i)).
				WithComputedAt(base.Add(time.Duration(i) * time.Hour)).
				Build()
			require.NoError(t, repo.CommitCompletion(ctx, result))
		}

		entries, err := repo.HistoryForItem(ctx, itemRef, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		// Newest first.
		assert.InDelta(t, 52, entries[0].Score, 0.0005)
		assert.InDelta(t, 51, entries[1].Score, 0.0005)

		entries, err = repo.HistoryForItem(ctx, "cand-unknown", 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
