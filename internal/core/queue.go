// Package core provides the interface contracts for the ranking job system.
package core

import (
	"context"
	"time"

	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/queue"
)

// JobQueue defines the interface over the Redis-backed scoring job queue.
// Delivery is at-least-once: a dequeued job that is never acked comes back
// via RequeueExpired, so consumers must tolerate redelivery.
type JobQueue interface {
	Enqueue(ctx context.Context, job *model.ScoringJob) error
	// EnqueueDebounced enqueues unless a debounce marker for the item is
	// still live. Returns false when the enqueue was suppressed.
	EnqueueDebounced(ctx context.Context, job *model.ScoringJob, ttl time.Duration) (bool, error)
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Delivery, error)
	ExtendLease(ctx context.Context, d *queue.Delivery) error
	Ack(ctx context.Context, d *queue.Delivery) error
	Nack(ctx context.Context, d *queue.Delivery) error
	RequeueExpired(ctx context.Context, now time.Time) (int, error)
	Depth(ctx context.Context) (pending, processing int64, err error)
	Health(ctx context.Context) error
}
