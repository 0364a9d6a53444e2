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

func createTestDelivery(t *testing.T, db *sql.DB, maxAttempts int) *model.WebhookDelivery {
	t.Helper()
	ctx := context.Background()

	job := testutil.NewScoringJob().Build()
	require.NoError(t, NewJobRepo(db).Create(ctx, job))

	d := &model.WebhookDelivery{
		ID:               uuid.NewString(),
		JobID:            job.ID,
		Endpoint:         "https://hooks.example.com/score-events",
		PayloadSignature: "sha256=deadbeef",
		MaxAttempts:      maxAttempts,
	}
	require.NoError(t, NewDeliveryRepo(db).Create(ctx, d))
	return d
}

func TestDeliveryRepo_RecordAttempt(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDeliveryRepo(db)
		ctx := context.Background()

		t.Run("successful attempt marks delivered", func(t *testing.T) {
			d := createTestDelivery(t, db, 5)

			require.NoError(t, repo.RecordAttempt(ctx, d.ID, nil))

			got, err := repo.GetByID(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, model.DeliveryStatusDelivered, got.Status)
			assert.Equal(t, 1, got.AttemptCount)
			assert.Nil(t, got.LastError)
			require.NotNil(t, got.DeliveredAt)
		})

		t.Run("failed attempt records error and stays pending", func(t *testing.T) {
			d := createTestDelivery(t, db, 5)

			require.NoError(t, repo.RecordAttempt(ctx, d.ID, errors.New("endpoint returned 503")))

			got, err := repo.GetByID(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, model.DeliveryStatusPending, got.Status)
			assert.Equal(t, 1, got.AttemptCount)
			require.NotNil(t, got.LastError)
			assert.Equal(t, "endpoint returned 503", *got.LastError)
		})

		t.Run("final failed attempt flips to exhausted", func(t *testing.T) {
			d := createTestDelivery(t, db, 2)

			require.NoError(t, repo.RecordAttempt(ctx, d.ID, errors.New("connection refused")))
			require.NoError(t, repo.RecordAttempt(ctx, d.ID, errors.New("connection refused")))

			got, err := repo.GetByID(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, model.DeliveryStatusExhausted, got.Status)
			assert.Equal(t, 2, got.AttemptCount)
		})

		t.Run("unknown delivery returns not found", func(t *testing.T) {
			err := repo.RecordAttempt(ctx, uuid.NewString(), nil)
			require.Error(t, err)
			assert.True(t, apperrors.IsNotFound(err))
		})
	})
}

func TestDeliveryRepo_ListExhausted(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDeliveryRepo(db)
		ctx := context.Background()

		exhausted := createTestDelivery(t, db, 1)
		require.NoError(t, repo.RecordAttempt(ctx, exhausted.ID, errors.New("boom")))
		createTestDelivery(t, db, 5)

		got, err := repo.ListExhausted(ctx, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, exhausted.ID, got[0].ID)
	})
}

func TestDeliveryRepo_PruneFinished(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		past := time.Now().Add(-48 * time.Hour)
		oldRepo := NewDeliveryRepoWithTimeProvider(db, NewFixedTimeProvider(past))

		job := testutil.NewScoringJob().Build()
		require.NoError(t, NewJobRepo(db).Create(ctx, job))
		old := &model.WebhookDelivery{
			ID:               uuid.NewString(),
			JobID:            job.ID,
			Endpoint:         "https://hooks.example.com/score-events",
			PayloadSignature: "sha256=deadbeef",
			MaxAttempts:      3,
		}
		require.NoError(t, oldRepo.Create(ctx, old))
		require.NoError(t, oldRepo.RecordAttempt(ctx, old.ID, nil))

		repo := NewDeliveryRepo(db)
		fresh := createTestDelivery(t, db, 3)

		n, err := repo.PruneFinished(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.GetByID(ctx, old.ID)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = repo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)
	})
}
