package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
	"github.com/gradlift/ranking-go/internal/mocks"
)

func TestNewRankingService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("creates service", func(t *testing.T) {
		svc, err := NewRankingService(RankingServiceOptions{
			Rankings: mocks.NewMockRankingRepository(ctrl),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("requires ranking repository", func(t *testing.T) {
		_, err := NewRankingService(RankingServiceOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RankingRepository is required")
	})
}

func TestRankingService_GetRanking(t *testing.T) {
	ctx := context.Background()
	row := &model.RankingRow{ItemRef: "item-1", Composite: 81.5, Rank: 3}

	newFixture := func(t *testing.T) (*RankingService, *mocks.MockRankingRepository, *mocks.MockScoreCacheRepository) {
		t.Helper()
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		rankings := mocks.NewMockRankingRepository(ctrl)
		cache := mocks.NewMockScoreCacheRepository(ctrl)
		svc, err := NewRankingService(RankingServiceOptions{Rankings: rankings, Cache: cache})
		require.NoError(t, err)
		return svc, rankings, cache
	}

	t.Run("cache hit skips postgres", func(t *testing.T) {
		svc, _, cache := newFixture(t)
		cache.EXPECT().GetRanking(gomock.Any(), "item-1").Return(row, nil)

		got, err := svc.GetRanking(ctx, "item-1")
		require.NoError(t, err)
		assert.Same(t, row, got)
	})

	t.Run("cache miss falls through and populates", func(t *testing.T) {
		svc, rankings, cache := newFixture(t)
		cache.EXPECT().GetRanking(gomock.Any(), "item-1").Return(nil, nil)
		rankings.EXPECT().GetRanking(gomock.Any(), "item-1").Return(row, nil)
		cache.EXPECT().SetRanking(gomock.Any(), row).Return(nil)

		got, err := svc.GetRanking(ctx, "item-1")
		require.NoError(t, err)
		assert.Same(t, row, got)
	})

	t.Run("cache errors fall through to postgres", func(t *testing.T) {
		svc, rankings, cache := newFixture(t)
		cache.EXPECT().GetRanking(gomock.Any(), "item-1").Return(nil, errors.New("redis down"))
		rankings.EXPECT().GetRanking(gomock.Any(), "item-1").Return(row, nil)
		cache.EXPECT().SetRanking(gomock.Any(), row).Return(errors.New("redis down"))

		got, err := svc.GetRanking(ctx, "item-1")
		require.NoError(t, err)
		assert.Same(t, row, got)
	})

	t.Run("postgres errors propagate", func(t *testing.T) {
		svc, rankings, cache := newFixture(t)
		cache.EXPECT().GetRanking(gomock.Any(), "item-9").Return(nil, nil)
		rankings.EXPECT().GetRanking(gomock.Any(), "item-9").Return(nil, apperrors.NotFound("ranking not found"))

		_, err := svc.GetRanking(ctx, "item-9")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("works without a cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		rankings := mocks.NewMockRankingRepository(ctrl)
		svc, err := NewRankingService(RankingServiceOptions{Rankings: rankings})
		require.NoError(t, err)

		rankings.EXPECT().GetRanking(gomock.Any(), "item-1").Return(row, nil)

		got, err := svc.GetRanking(ctx, "item-1")
		require.NoError(t, err)
		assert.Same(t, row, got)
	})
}

func TestRankingService_TopRankings(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rankings := mocks.NewMockRankingRepository(ctrl)
	svc, err := NewRankingService(RankingServiceOptions{Rankings: rankings})
	require.NoError(t, err)

	t.Run("returns rows", func(t *testing.T) {
		rows := []model.RankingRow{{ItemRef: "a", Rank: 1}, {ItemRef: "b", Rank: 2}}
		rankings.EXPECT().TopRankings(gomock.Any(), 10).Return(rows, nil)

		got, err := svc.TopRankings(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := svc.TopRankings(ctx, 0)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestRankingService_GlobalStats(t *testing.T) {
	ctx := context.Background()
	stats := &model.GlobalRankingStats{TotalItems: 42, P50: 63.2}

	t.Run("cache aside", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		rankings := mocks.NewMockRankingRepository(ctrl)
		cache := mocks.NewMockScoreCacheRepository(ctrl)
		svc, err := NewRankingService(RankingServiceOptions{Rankings: rankings, Cache: cache})
		require.NoError(t, err)

		cache.EXPECT().GetGlobalStats(gomock.Any()).Return(nil, nil)
		rankings.EXPECT().GetGlobalStats(gomock.Any()).Return(stats, nil)
		cache.EXPECT().SetGlobalStats(gomock.Any(), stats).Return(nil)

		got, err := svc.GlobalStats(ctx)
		require.NoError(t, err)
		assert.Same(t, stats, got)
	})

	t.Run("cache hit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		rankings := mocks.NewMockRankingRepository(ctrl)
		cache := mocks.NewMockScoreCacheRepository(ctrl)
		svc, err := NewRankingService(RankingServiceOptions{Rankings: rankings, Cache: cache})
		require.NoError(t, err)

		cache.EXPECT().GetGlobalStats(gomock.Any()).Return(stats, nil)

		got, err := svc.GlobalStats(ctx)
		require.NoError(t, err)
		assert.Same(t, stats, got)
	})
}

func TestRankingService_Histogram(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rankings := mocks.NewMockRankingRepository(ctrl)
	svc, err := NewRankingService(RankingServiceOptions{Rankings: rankings})
	require.NoError(t, err)

	buckets := []model.HistogramBucket{{BucketID: 14, Count: 7}}
	rankings.EXPECT().GetHistogram(gomock.Any()).Return(buckets, nil)

	got, err := svc.Histogram(context.Background())
	require.NoError(t, err)
	assert.Equal(t, buckets, got)
}
