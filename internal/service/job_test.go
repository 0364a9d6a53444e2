package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/domain/scoring"
	"github.com/gradlift/ranking-go/internal/mocks"
)

func newTestResolver(t *testing.T, active string) *scoring.Resolver {
	t.Helper()
	resolver, err := scoring.NewResolver(active, "", nil)
	require.NoError(t, err)
	return resolver
}

func TestNewJobService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	q := mocks.NewMockJobQueue(ctrl)
	resolver := newTestResolver(t, "v1")

	t.Run("success", func(t *testing.T) {
		svc, err := NewJobService(JobServiceOptions{
			Jobs:     jobs,
			Results:  results,
			Queue:    q,
			Resolver: resolver,
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
		assert.Equal(t, 3, svc.maxAttempts)
	})

	t.Run("success with logger", func(t *testing.T) {
		svc, err := NewJobService(JobServiceOptions{
			Jobs:     jobs,
			Results:  results,
			Queue:    q,
			Resolver: resolver,
			Logger:   slog.Default(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc.logger)
	})

	t.Run("worker config supplies retry budget", func(t *testing.T) {
		svc, err := NewJobService(JobServiceOptions{
			Jobs:     jobs,
			Results:  results,
			Queue:    q,
			Resolver: resolver,
			Worker:   config.WorkerConfig{DefaultMaxAttempts: 7},
		})
		require.NoError(t, err)
		assert.Equal(t, 7, svc.maxAttempts)
	})

	t.Run("missing jobs", func(t *testing.T) {
		_, err := NewJobService(JobServiceOptions{
			Results:  results,
			Queue:    q,
			Resolver: resolver,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JobRepository is required")
	})

	t.Run("missing results", func(t *testing.T) {
		_, err := NewJobService(JobServiceOptions{
			Jobs:     jobs,
			Queue:    q,
			Resolver: resolver,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ResultRepository is required")
	})

	t.Run("missing queue", func(t *testing.T) {
		_, err := NewJobService(JobServiceOptions{
			Jobs:     jobs,
			Results:  results,
			Resolver: resolver,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JobQueue is required")
	})

	t.Run("missing resolver", func(t *testing.T) {
		_, err := NewJobService(JobServiceOptions{
			Jobs:    jobs,
			Results: results,
			Queue:   q,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Resolver is required")
	})
}

func TestJobService_Enqueue(t *testing.T) {
	ctx := context.Background()
	document := json.RawMessage(`{"academic":{"gpa":3.6,"test_score":88}}`)

	newService := func(t *testing.T, ctrl *gomock.Controller) (*JobService, *mocks.MockJobRepository, *mocks.MockJobQueue) {
		t.Helper()
		jobs := mocks.NewMockJobRepository(ctrl)
		q := mocks.NewMockJobQueue(ctrl)
		svc := MustNewJobService(JobServiceOptions{
			Jobs:     jobs,
			Results:  mocks.NewMockResultRepository(ctrl),
			Queue:    q,
			Resolver: newTestResolver(t, "v2"),
		})
		return svc, jobs, q
	}

	t.Run("pins active config version and derives idempotency key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, jobs, q := newService(t, ctrl)

		var created *model.ScoringJob
		jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, job *model.ScoringJob) error {
				created = job
				return nil
			})
		q.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

		job, err := svc.Enqueue(ctx, &model.EnqueueRequest{
			ItemRef:   "item-1",
			Document:  document,
			CallerKey: "batch-9",
		})
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Same(t, created, job)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "v2", job.ConfigVersion)
		assert.Equal(t, model.JobStatusPending, job.Status)
		assert.Equal(t, 3, job.MaxAttempts)
		assert.Equal(t,
			model.DeriveIdempotencyKey("item-1", "v2", "batch-9"),
			job.IdempotencyKey,
		)
	})

	t.Run("request max attempts overrides default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, jobs, q := newService(t, ctrl)

		jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		q.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

		job, err := svc.Enqueue(ctx, &model.EnqueueRequest{
			ItemRef:     "item-1",
			Document:    document,
			MaxAttempts: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, job.MaxAttempts)
	})

	t.Run("nil request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, _, _ := newService(t, ctrl)

		_, err := svc.Enqueue(ctx, nil)
		require.Error(t, err)
	})

	t.Run("invalid request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, _, _ := newService(t, ctrl)

		_, err := svc.Enqueue(ctx, &model.EnqueueRequest{Document: document})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "item ref is required")
	})

	t.Run("create failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, jobs, _ := newService(t, ctrl)

		jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		_, err := svc.Enqueue(ctx, &model.EnqueueRequest{ItemRef: "item-1", Document: document})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create scoring job")
	})

	t.Run("queue push failure leaves row pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		svc, jobs, q := newService(t, ctrl)

		jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		q.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis unavailable"))

		_, err := svc.Enqueue(ctx, &model.EnqueueRequest{ItemRef: "item-1", Document: document})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enqueue scoring job")
	})
}

func TestJobService_ReadPaths(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	q := mocks.NewMockJobQueue(ctrl)
	svc := MustNewJobService(JobServiceOptions{
		Jobs:     jobs,
		Results:  results,
		Queue:    q,
		Resolver: newTestResolver(t, "v1"),
	})

	t.Run("get job", func(t *testing.T) {
		jobs.EXPECT().GetByID(gomock.Any(), "job-1").
			Return(&model.ScoringJob{ID: "job-1"}, nil)

		job, err := svc.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, "job-1", job.ID)
	})

	t.Run("get status", func(t *testing.T) {
		results.EXPECT().GetStatus(gomock.Any(), "job-1").
			Return(&model.JobStatusResponse{JobID: "job-1", Status: model.JobStatusCompleted}, nil)

		status, err := svc.GetStatus(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, status.Status)
	})

	t.Run("stats", func(t *testing.T) {
		jobs.EXPECT().Stats(gomock.Any()).
			Return(&model.JobStats{Pending: 2, Completed: 5}, nil)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Pending)
	})

	t.Run("history", func(t *testing.T) {
		results.EXPECT().HistoryForItem(gomock.Any(), "item-1", 10).
			Return([]model.ScoreHistoryEntry{{ItemRef: "item-1", Score: 71.5}}, nil)

		history, err := svc.History(ctx, "item-1", 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.InDelta(t, 71.5, history[0].Score, 0.0001)
	})

	t.Run("queue depth", func(t *testing.T) {
		q.EXPECT().Depth(gomock.Any()).Return(int64(4), int64(1), nil)

		pending, processing, err := svc.QueueDepth(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), pending)
		assert.Equal(t, int64(1), processing)
	})

	t.Run("queue depth error", func(t *testing.T) {
		q.EXPECT().Depth(gomock.Any()).Return(int64(0), int64(0), errors.New("redis unavailable"))

		_, _, err := svc.QueueDepth(ctx)
		require.Error(t, err)
	})
}
