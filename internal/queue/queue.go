// Package queue implements the Redis-backed scoring job queue with
// at-least-once delivery. Jobs move from a pending list to a processing list
// on dequeue (BLMOVE) and hold a visibility lease while in flight; leases
// that expire without an ack are requeued by the reaper, which is what makes
// a job survive a worker crash between dequeue and ack.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gradlift/ranking-go/internal/domain/model"
)

// ErrUnavailable wraps infrastructure-level queue failures. Consumers should
// back off and retry the connection rather than crash-looping.
var ErrUnavailable = errors.New("queue unavailable")

// Options configures a Queue.
type Options struct {
	// KeyPrefix namespaces every Redis key. Defaults to "ranking".
	KeyPrefix string
	// VisibilityTimeout bounds how long a dequeued job may stay unacked
	// before the reaper hands it to another worker.
	VisibilityTimeout time.Duration
	// Now overrides the clock for tests.
	Now func() time.Time
}

// Queue is the Redis-backed job queue.
type Queue struct {
	client     redis.UniversalClient
	prefix     string
	visibility time.Duration
	now        func() time.Time

	// orphanSeen tracks processing-list entries observed without a lease so
	// they are only requeued after surviving two reaper passes. A freshly
	// dequeued job sits leaseless for a moment between BLMOVE and the lease
	// write; one pass of grace keeps that window from causing double delivery.
	mu         sync.Mutex
	orphanSeen map[string]struct{}
}

// New creates a Queue on top of an established Redis client.
func New(client redis.UniversalClient, opts Options) *Queue {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "ranking"
	}
	visibility := opts.VisibilityTimeout
	if visibility <= 0 {
		visibility = 60 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Queue{
		client:     client,
		prefix:     prefix,
		visibility: visibility,
		now:        now,
		orphanSeen: make(map[string]struct{}),
	}
}

func (q *Queue) pendingKey() string    { return q.prefix + ":jobs:pending" }
func (q *Queue) processingKey() string { return q.prefix + ":jobs:processing" }
func (q *Queue) leaseKey() string      { return q.prefix + ":jobs:leases" }
func (q *Queue) debounceKey(itemRef string) string {
	return q.prefix + ":debounce:" + itemRef
}

// Delivery is one dequeued job plus the raw list entry needed to ack or nack
// it. The raw bytes must match the processing-list entry exactly for LREM.
type Delivery struct {
	Job *model.ScoringJob
	raw string
}

// lease is the in-flight record stored per delivered job.
type lease struct {
	Deadline int64  `json:"deadline"`
	Raw      string `json:"raw"`
}

// Enqueue pushes a job onto the pending list.
func (q *Queue) Enqueue(ctx context.Context, job *model.ScoringJob) error {
	raw, err := encodeJob(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.pendingKey(), raw).Err(); err != nil {
		return unavailable("enqueue", err)
	}
	return nil
}

// EnqueueDebounced enqueues unless a debounce key for the item is still live.
// Returns false when the enqueue was suppressed. The key is set atomically
// with SET NX so concurrent producers collapse into a single job.
func (q *Queue) EnqueueDebounced(ctx context.Context, job *model.ScoringJob, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, q.Enqueue(ctx, job)
	}
	set, err := q.client.SetArgs(ctx, q.debounceKey(job.ItemRef), job.ID, redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, unavailable("debounce", err)
	}
	if set != "OK" {
		return false, nil
	}
	return true, q.Enqueue(ctx, job)
}

// Dequeue blocks up to timeout for the next job, moving it to the processing
// list and recording a visibility lease. Returns (nil, nil) when the timeout
// elapses with no job available.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	raw, err := q.client.BLMove(ctx, q.pendingKey(), q.processingKey(), "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, unavailable("dequeue", err)
	}

	job, err := decodeJob(raw)
	if err != nil {
		// A malformed entry can never be processed; drop it from the
		// processing list so it does not wedge the reaper.
		_ = q.client.LRem(ctx, q.processingKey(), 1, raw).Err()
		return nil, err
	}

	if err := q.writeLease(ctx, job.ID, raw); err != nil {
		return nil, err
	}
	return &Delivery{Job: job, raw: raw}, nil
}

func (q *Queue) writeLease(ctx context.Context, jobID, raw string) error {
	entry, err := json.Marshal(lease{
		Deadline: q.now().Add(q.visibility).Unix(),
		Raw:      raw,
	})
	if err != nil {
		return fmt.Errorf("encode lease: %w", err)
	}
	if err := q.client.HSet(ctx, q.leaseKey(), jobID, entry).Err(); err != nil {
		return unavailable("record lease", err)
	}
	return nil
}

// ExtendLease pushes a delivery's visibility deadline out by the configured
// timeout. Long-running scores call this to stay ahead of the reaper.
func (q *Queue) ExtendLease(ctx context.Context, d *Delivery) error {
	return q.writeLease(ctx, d.Job.ID, d.raw)
}

// Ack removes a delivered job from the processing list and drops its lease.
func (q *Queue) Ack(ctx context.Context, d *Delivery) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey(), 1, d.raw)
	pipe.HDel(ctx, q.leaseKey(), d.Job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("ack", err)
	}
	return nil
}

// Nack returns a delivered job to the pending list with an incremented
// attempt count. Callers enforce the max-attempt threshold before nacking;
// a job past its budget is marked failed and acked instead.
func (q *Queue) Nack(ctx context.Context, d *Delivery) error {
	d.Job.AttemptCount++
	raw, err := encodeJob(d.Job)
	if err != nil {
		return err
	}
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey(), 1, d.raw)
	pipe.HDel(ctx, q.leaseKey(), d.Job.ID)
	pipe.LPush(ctx, q.pendingKey(), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("nack", err)
	}
	return nil
}

// RequeueExpired returns crashed deliveries to the pending list: entries
// whose lease deadline has passed, plus processing-list entries that have had
// no lease for two consecutive passes. Returns the number requeued.
func (q *Queue) RequeueExpired(ctx context.Context, now time.Time) (int, error) {
	leases, err := q.client.HGetAll(ctx, q.leaseKey()).Result()
	if err != nil {
		return 0, unavailable("scan leases", err)
	}

	requeued := 0
	for jobID, entry := range leases {
		var l lease
		if err := json.Unmarshal([]byte(entry), &l); err != nil {
			// An unreadable lease cannot be honored; requeue from the raw
			// processing entry if one exists, otherwise just drop it.
			_ = q.client.HDel(ctx, q.leaseKey(), jobID).Err()
			continue
		}
		if now.Unix() < l.Deadline {
			continue
		}
		if err := q.requeueEntry(ctx, jobID, l.Raw); err != nil {
			return requeued, err
		}
		requeued++
	}

	orphans, err := q.requeueOrphans(ctx, leases)
	if err != nil {
		return requeued, err
	}
	return requeued + orphans, nil
}

// requeueOrphans handles processing entries without a lease, requeueing only
// those already seen on the previous pass.
func (q *Queue) requeueOrphans(ctx context.Context, leases map[string]string) (int, error) {
	entries, err := q.client.LRange(ctx, q.processingKey(), 0, -1).Result()
	if err != nil {
		return 0, unavailable("scan processing", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	requeued := 0
	nextSeen := make(map[string]struct{})
	for _, raw := range entries {
		job, err := decodeJob(raw)
		if err != nil {
			_ = q.client.LRem(ctx, q.processingKey(), 1, raw).Err()
			continue
		}
		if _, leased := leases[job.ID]; leased {
			continue
		}
		if _, seen := q.orphanSeen[job.ID]; !seen {
			nextSeen[job.ID] = struct{}{}
			continue
		}
		if err := q.requeueEntry(ctx, job.ID, raw); err != nil {
			q.orphanSeen = nextSeen
			return requeued, err
		}
		requeued++
	}
	q.orphanSeen = nextSeen
	return requeued, nil
}

func (q *Queue) requeueEntry(ctx context.Context, jobID, raw string) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey(), 1, raw)
	pipe.HDel(ctx, q.leaseKey(), jobID)
	pipe.LPush(ctx, q.pendingKey(), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("requeue", err)
	}
	return nil
}

// Depth reports the pending and in-flight list lengths.
func (q *Queue) Depth(ctx context.Context) (pending, processing int64, err error) {
	pending, err = q.client.LLen(ctx, q.pendingKey()).Result()
	if err != nil {
		return 0, 0, unavailable("pending depth", err)
	}
	processing, err = q.client.LLen(ctx, q.processingKey()).Result()
	if err != nil {
		return 0, 0, unavailable("processing depth", err)
	}
	return pending, processing, nil
}

// Health pings the queue backend.
func (q *Queue) Health(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func encodeJob(job *model.ScoringJob) (string, error) {
	if job.ID == "" {
		return "", errors.New("job id is required")
	}
	if strings.TrimSpace(job.ItemRef) == "" {
		return "", errors.New("job item ref is required")
	}
	b, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	return string(b), nil
}

func decodeJob(raw string) (*model.ScoringJob, error) {
	var job model.ScoringJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
