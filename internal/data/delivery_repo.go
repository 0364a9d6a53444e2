package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
)

const deliveryColumns = `
  id,
  job_id,
  endpoint,
  payload_signature,
  status,
  attempt_count,
  max_attempts,
  last_error,
  delivered_at,
  created_at,
  updated_at
`

// DeliveryRepo provides database operations for webhook delivery records.
type DeliveryRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *sql.DB) *DeliveryRepo {
	return &DeliveryRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewDeliveryRepoWithTimeProvider creates a DeliveryRepo with a custom TimeProvider.
func NewDeliveryRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *DeliveryRepo {
	return &DeliveryRepo{DB: db, timeProvider: tp}
}

// Create inserts a pending delivery row.
func (r *DeliveryRepo) Create(ctx context.Context, d *model.WebhookDelivery) error {
	if d == nil {
		return errors.New("delivery is required")
	}
	now := r.timeProvider.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (
			id, job_id, endpoint, payload_signature, status,
			attempt_count, max_attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, d.ID, d.JobID, d.Endpoint, d.PayloadSignature, model.DeliveryStatusPending,
		0, d.MaxAttempts, now)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("insert webhook delivery: %w", err))
	}
	return nil
}

// RecordAttempt updates a delivery after one attempt. A successful attempt
// marks the row delivered; a failed attempt stores the error and flips the
// row to exhausted once the attempt budget is spent.
func (r *DeliveryRepo) RecordAttempt(ctx context.Context, id string, attemptErr error) error {
	now := r.timeProvider.Now().UTC()

	if attemptErr == nil {
		res, err := r.DB.ExecContext(ctx, `
			UPDATE webhook_deliveries
			SET status = $2,
			    attempt_count = attempt_count + 1,
			    last_error = NULL,
			    delivered_at = $3,
			    updated_at = $3
			WHERE id = $1
		`, id, model.DeliveryStatusDelivered, now)
		if err != nil {
			return apperrors.MapDBError(fmt.Errorf("mark delivery delivered: %w", err))
		}
		return requireDeliveryRow(res, id)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET attempt_count = attempt_count + 1,
		    last_error = $2,
		    status = CASE
		        WHEN attempt_count + 1 >= max_attempts THEN 'exhausted'
		        ELSE status
		    END,
		    updated_at = $3
		WHERE id = $1
	`, id, attemptErr.Error(), now)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("record delivery failure: %w", err))
	}
	return requireDeliveryRow(res, id)
}

// GetByID fetches a delivery row.
func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*model.WebhookDelivery, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM webhook_deliveries
		WHERE id = $1
	`, id)
	return scanDelivery(row)
}

// ListExhausted returns exhausted deliveries for manual inspection, newest first.
func (r *DeliveryRepo) ListExhausted(ctx context.Context, limit int) ([]model.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM webhook_deliveries
		WHERE status = 'exhausted'
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list exhausted deliveries: %w", err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []model.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate deliveries: %w", err))
	}
	return out, nil
}

// ListRetryable returns pending deliveries, oldest attempt first. Callers
// decide which rows are actually due from their own backoff policy.
func (r *DeliveryRepo) ListRetryable(ctx context.Context, limit int) ([]model.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+deliveryColumns+`
		FROM webhook_deliveries
		WHERE status = 'pending'
		ORDER BY updated_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list retryable deliveries: %w", err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []model.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate deliveries: %w", err))
	}
	return out, nil
}

// PruneFinished deletes delivered and exhausted rows older than threshold.
func (r *DeliveryRepo) PruneFinished(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := r.timeProvider.Now().UTC().Add(-threshold)
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM webhook_deliveries
		WHERE status IN ('delivered', 'exhausted')
		  AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("prune deliveries: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func requireDeliveryRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("delivery %s not found", id)
	}
	return nil
}

func scanDelivery(row rowScanner) (*model.WebhookDelivery, error) {
	var d model.WebhookDelivery
	err := row.Scan(
		&d.ID,
		&d.JobID,
		&d.Endpoint,
		&d.PayloadSignature,
		&d.Status,
		&d.AttemptCount,
		&d.MaxAttempts,
		&d.LastError,
		&d.DeliveredAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("scan webhook delivery: %w", err))
	}
	return &d, nil
}
