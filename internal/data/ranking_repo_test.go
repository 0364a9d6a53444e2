package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gradlift/ranking-go/internal/errors"
	"github.com/gradlift/ranking-go/internal/testutil"
)

func seedRankings(t *testing.T, db *sql.DB, scores map[string]float64) {
	t.Helper()
	jobs := NewJobRepo(db)
	results := NewResultRepo(db, jobs)
	ctx := context.Background()

	for itemRef, score := range scores {
		job := testutil.NewScoringJob().WithItemRef(itemRef).Build()
		require.NoError(t, jobs.Create(ctx, job))
		result := testutil.NewScoreResult(job).WithScore(score).Build()
		require.NoError(t, results.CommitCompletion(ctx, result))
	}
}

func TestRankingRepo_RecomputeRanks(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRankingRepo(db)
		ctx := context.Background()

		seedRankings(t, db, map[string]float64{
			"cand-a": 91.5,
			"cand-b": 72.25,
			"cand-c": 84.0,
		})

		n, err := repo.RecomputeRanks(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		top, err := repo.TopRankings(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, "cand-a", top[0].ItemRef)
		assert.Equal(t, 1, top[0].Rank)
		assert.Equal(t, "cand-c", top[1].ItemRef)
		assert.Equal(t, 2, top[1].Rank)
		assert.Equal(t, "cand-b", top[2].ItemRef)
		assert.Equal(t, 3, top[2].Rank)

		// Second pass with unchanged scores touches nothing.
		n, err = repo.RecomputeRanks(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestRankingRepo_RefreshGlobalStats(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRankingRepo(db)
		ctx := context.Background()

		t.Run("empty population writes zero row", func(t *testing.T) {
			require.NoError(t, repo.RefreshGlobalStats(ctx))

			stats, err := repo.GetGlobalStats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, stats.TotalItems)
			assert.InDelta(t, 0, stats.P50, 0.0005)
		})

		t.Run("percentiles over committed scores", func(t *testing.T) {
			seedRankings(t, db, map[string]float64{
				"cand-p1": 10,
				"cand-p2": 20,
				"cand-p3": 30,
				"cand-p4": 40,
				"cand-p5": 50,
			})

			require.NoError(t, repo.RefreshGlobalStats(ctx))

			stats, err := repo.GetGlobalStats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 5, stats.TotalItems)
			assert.InDelta(t, 30, stats.P50, 0.001)
			assert.InDelta(t, 46, stats.P90, 0.001)
			assert.InDelta(t, 49.6, stats.P99, 0.001)
		})
	})
}

func TestRankingRepo_RebuildHistogram(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRankingRepo(db)
		ctx := context.Background()

		seedRankings(t, db, map[string]float64{
			"cand-h1": 4.5,
			"cand-h2": 9.999,
			"cand-h3": 10.0,
			"cand-h4": 87.3,
		})

		require.NoError(t, repo.RebuildHistogram(ctx, 10))

		buckets, err := repo.GetHistogram(ctx)
		require.NoError(t, err)
		require.Len(t, buckets, 3)
		assert.Equal(t, 0, buckets[0].BucketID)
		assert.Equal(t, 2, buckets[0].Count)
		assert.Equal(t, 1, buckets[1].BucketID)
		assert.Equal(t, 1, buckets[1].Count)
		assert.Equal(t, 8, buckets[2].BucketID)
		assert.Equal(t, 1, buckets[2].Count)

		t.Run("rebuild replaces previous buckets", func(t *testing.T) {
			require.NoError(t, repo.RebuildHistogram(ctx, 50))

			buckets, err := repo.GetHistogram(ctx)
			require.NoError(t, err)
			require.Len(t, buckets, 2)
			assert.Equal(t, 0, buckets[0].BucketID)
			assert.Equal(t, 3, buckets[0].Count)
			assert.Equal(t, 1, buckets[1].BucketID)
			assert.Equal(t, 1, buckets[1].Count)
		})

		t.Run("rejects non-positive width", func(t *testing.T) {
			err := repo.RebuildHistogram(ctx, 0)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	})
}

func TestRankingRepo_GetRanking_NotFound(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRankingRepo(db)

		_, err := repo.GetRanking(context.Background(), "cand-missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
