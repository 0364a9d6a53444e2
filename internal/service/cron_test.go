package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/mocks"
)

type cronFixture struct {
	svc      *CronService
	policies *mocks.MockRescoreRepository
	jobs     *mocks.MockJobRepository
	rankings *mocks.MockRankingRepository
	queue    *mocks.MockJobQueue
	cache    *mocks.MockScoreCacheRepository
}

func newCronFixture(t *testing.T, ctrl *gomock.Controller) *cronFixture {
	t.Helper()
	f := &cronFixture{
		policies: mocks.NewMockRescoreRepository(ctrl),
		jobs:     mocks.NewMockJobRepository(ctrl),
		rankings: mocks.NewMockRankingRepository(ctrl),
		queue:    mocks.NewMockJobQueue(ctrl),
		cache:    mocks.NewMockScoreCacheRepository(ctrl),
	}
	f.svc = MustNewCronService(CronServiceOptions{
		Policies: f.policies,
		Jobs:     f.jobs,
		Rankings: f.rankings,
		Queue:    f.queue,
		Resolver: newTestResolver(t, "v1"),
		Cache:    f.cache,
		Config: config.CronConfig{
			Interval:             30 * time.Second,
			BatchSize:            25,
			DebounceTTL:          time.Minute,
			MaintenanceInterval:  5 * time.Minute,
			HistogramBucketWidth: 5,
		},
	})
	return f
}

// lockAcquired makes TryWithScheduleLock run its callback as the lock holder.
func lockAcquired(f *cronFixture) *gomock.Call {
	return f.policies.EXPECT().
		TryWithScheduleLock(gomock.Any(), "rescore-pass", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, fn func(context.Context, *sql.Tx) error) (bool, error) {
			return true, fn(ctx, nil)
		})
}

func testPolicy(id, itemRef string) model.RescorePolicy {
	return model.RescorePolicy{
		ID:              id,
		ItemRef:         itemRef,
		Document:        json.RawMessage(`{"academic":{"gpa":3.0}}`),
		IntervalSeconds: 3600,
		Active:          true,
	}
}

func TestNewCronService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newCronFixture(t, ctrl)
	assert.NotNil(t, f.svc)

	t.Run("invalid batch size", func(t *testing.T) {
		_, err := NewCronService(CronServiceOptions{
			Policies: f.policies,
			Jobs:     f.jobs,
			Rankings: f.rankings,
			Queue:    f.queue,
			Resolver: newTestResolver(t, "v1"),
			Config:   config.CronConfig{BatchSize: 0},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch size")
	})

	t.Run("missing policies", func(t *testing.T) {
		_, err := NewCronService(CronServiceOptions{
			Jobs:     f.jobs,
			Rankings: f.rankings,
			Queue:    f.queue,
			Resolver: newTestResolver(t, "v1"),
			Config:   config.CronConfig{BatchSize: 1},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RescoreRepository is required")
	})
}

func TestCronService_RunRescorePass(t *testing.T) {
	ctx := context.Background()

	t.Run("lock held elsewhere skips the pass", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		f.policies.EXPECT().
			TryWithScheduleLock(gomock.Any(), "rescore-pass", gomock.Any()).
			Return(false, nil)

		enqueued, err := f.svc.RunRescorePass(ctx)
		require.NoError(t, err)
		assert.Zero(t, enqueued)
	})

	t.Run("nothing due", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		lockAcquired(f)
		f.policies.EXPECT().FindDueTx(gomock.Any(), gomock.Nil(), gomock.Any(), 25).
			Return(nil, nil)

		enqueued, err := f.svc.RunRescorePass(ctx)
		require.NoError(t, err)
		assert.Zero(t, enqueued)
	})

	t.Run("enqueues due policies with fresh idempotency keys", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		lockAcquired(f)
		f.policies.EXPECT().FindDueTx(gomock.Any(), gomock.Nil(), gomock.Any(), 25).
			Return([]model.RescorePolicy{testPolicy("policy-1", "item-1"), testPolicy("policy-2", "item-2")}, nil)

		var created []*model.ScoringJob
		f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, job *model.ScoringJob) error {
				created = append(created, job)
				return nil
			}).Times(2)
		f.queue.EXPECT().EnqueueDebounced(gomock.Any(), gomock.Any(), time.Minute).
			Return(true, nil).Times(2)
		f.policies.EXPECT().MarkQueuedTx(gomock.Any(), gomock.Nil(), "policy-1", gomock.Any()).
			Return(true, nil)
		f.policies.EXPECT().MarkQueuedTx(gomock.Any(), gomock.Nil(), "policy-2", gomock.Any()).
			Return(true, nil)

		enqueued, err := f.svc.RunRescorePass(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, enqueued)

		require.Len(t, created, 2)
		assert.Equal(t, "item-1", created[0].ItemRef)
		assert.Equal(t, "v1", created[0].ConfigVersion)
		assert.NotEqual(t, created[0].IdempotencyKey, created[1].IdempotencyKey)
	})

	t.Run("debounced policy drops its job row without a failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		lockAcquired(f)
		f.policies.EXPECT().FindDueTx(gomock.Any(), gomock.Nil(), gomock.Any(), 25).
			Return([]model.RescorePolicy{testPolicy("policy-1", "item-1")}, nil)

		var jobID string
		f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, job *model.ScoringJob) error {
				jobID = job.ID
				return nil
			})
		f.queue.EXPECT().EnqueueDebounced(gomock.Any(), gomock.Any(), time.Minute).
			Return(false, nil)
		f.jobs.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, id string) error {
				assert.Equal(t, jobID, id)
				return nil
			})
		f.policies.EXPECT().MarkQueuedTx(gomock.Any(), gomock.Nil(), "policy-1", gomock.Any()).
			Return(true, nil)

		enqueued, err := f.svc.RunRescorePass(ctx)
		require.NoError(t, err)
		assert.Zero(t, enqueued)
	})

	t.Run("enqueue failure leaves policy due", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		lockAcquired(f)
		f.policies.EXPECT().FindDueTx(gomock.Any(), gomock.Nil(), gomock.Any(), 25).
			Return([]model.RescorePolicy{testPolicy("policy-1", "item-1")}, nil)
		f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		f.queue.EXPECT().EnqueueDebounced(gomock.Any(), gomock.Any(), time.Minute).
			Return(false, errors.New("redis unavailable"))

		_, err := f.svc.RunRescorePass(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enqueue rescore job for item-1")
	})

	t.Run("lock error propagates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		f.policies.EXPECT().
			TryWithScheduleLock(gomock.Any(), "rescore-pass", gomock.Any()).
			Return(false, errors.New("db down"))

		_, err := f.svc.RunRescorePass(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rescore pass")
	})
}

func TestCronService_RunMaintenance(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes derived state in order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		recompute := f.rankings.EXPECT().RecomputeRanks(gomock.Any()).Return(int64(12), nil)
		stats := f.rankings.EXPECT().RefreshGlobalStats(gomock.Any()).Return(nil).After(recompute)
		histogram := f.rankings.EXPECT().RebuildHistogram(gomock.Any(), 5.0).Return(nil).After(stats)
		f.cache.EXPECT().InvalidateGlobalStats(gomock.Any()).Return(nil).After(histogram)

		require.NoError(t, f.svc.RunMaintenance(ctx))
	})

	t.Run("recompute failure stops the pass", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		f.rankings.EXPECT().RecomputeRanks(gomock.Any()).
			Return(int64(0), errors.New("db down"))

		err := f.svc.RunMaintenance(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recompute ranks")
	})

	t.Run("cache invalidation failure is tolerated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newCronFixture(t, ctrl)

		f.rankings.EXPECT().RecomputeRanks(gomock.Any()).Return(int64(0), nil)
		f.rankings.EXPECT().RefreshGlobalStats(gomock.Any()).Return(nil)
		f.rankings.EXPECT().RebuildHistogram(gomock.Any(), 5.0).Return(nil)
		f.cache.EXPECT().InvalidateGlobalStats(gomock.Any()).
			Return(errors.New("redis unavailable"))

		require.NoError(t, f.svc.RunMaintenance(ctx))
	})
}
