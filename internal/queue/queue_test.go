package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlift/ranking-go/internal/testutil"
)

func setupQueue(t *testing.T, opts Options) *Queue {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := testutil.SetupTestRedis(t)
	t.Cleanup(func() { _ = client.Close() })
	opts.KeyPrefix = "qtest:" + t.Name()
	q := New(client, opts)
	t.Cleanup(func() {
		ctx := context.Background()
		client.Del(ctx, q.pendingKey(), q.processingKey(), q.leaseKey())
	})
	return q
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q := setupQueue(t, Options{VisibilityTimeout: time.Minute})
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testJob("job-1")))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "job-1", d.Job.ID)

	// Delivered jobs sit in the processing list with a live lease.
	pending, processing, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.EqualValues(t, 1, processing)

	require.NoError(t, q.Ack(ctx, d))

	pending, processing, err = q.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Zero(t, processing)
}

func TestQueue_DequeueTimeout(t *testing.T) {
	q := setupQueue(t, Options{})
	ctx := context.Background()

	d, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d, "empty queue should time out to nil, not error")
}

func TestQueue_NackIncrementsAttempts(t *testing.T) {
	q := setupQueue(t, Options{VisibilityTimeout: time.Minute})
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testJob("job-1")))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Zero(t, d.Job.AttemptCount)

	require.NoError(t, q.Nack(ctx, d))

	redelivered, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, redelivered)
	assert.Equal(t, "job-1", redelivered.Job.ID)
	assert.Equal(t, 1, redelivered.Job.AttemptCount)
	require.NoError(t, q.Ack(ctx, redelivered))
}

func TestQueue_RequeueExpired(t *testing.T) {
	now := time.Now()
	clock := now
	q := setupQueue(t, Options{
		VisibilityTimeout: 30 * time.Second,
		Now:               func() time.Time { return clock },
	})
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, testJob("job-1")))

	// Simulate a worker that dequeues and then crashes without acking.
	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)

	t.Run("live lease is left alone", func(t *testing.T) {
		n, err := q.RequeueExpired(ctx, now.Add(10*time.Second))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("expired lease is requeued", func(t *testing.T) {
		n, err := q.RequeueExpired(ctx, now.Add(31*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		redelivered, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, redelivered)
		assert.Equal(t, "job-1", redelivered.Job.ID)
		require.NoError(t, q.Ack(ctx, redelivered))
	})
}

func TestQueue_OrphanRequeueNeedsTwoPasses(t *testing.T) {
	q := setupQueue(t, Options{VisibilityTimeout: time.Minute})
	ctx := context.Background()

	// Plant a processing entry with no lease, as left behind by a worker
	// that crashed between BLMOVE and the lease write.
	raw, err := encodeJob(testJob("orphan-1"))
	require.NoError(t, err)
	require.NoError(t, q.client.LPush(ctx, q.processingKey(), raw).Err())

	n, err := q.RequeueExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n, "first sighting should only mark the orphan")

	n, err = q.RequeueExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "second sighting should requeue")

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "orphan-1", d.Job.ID)
	require.NoError(t, q.Ack(ctx, d))
}

func TestQueue_EnqueueDebounced(t *testing.T) {
	q := setupQueue(t, Options{})
	ctx := context.Background()

	first, err := q.EnqueueDebounced(ctx, testJob("job-1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := q.EnqueueDebounced(ctx, testJob("job-2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, second, "burst for the same item should collapse")

	pending, _, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	t.Run("zero ttl bypasses debounce", func(t *testing.T) {
		ok, err := q.EnqueueDebounced(ctx, testJob("job-3"), 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := testutil.SetupTestRedis(t)
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	key := "qtest:lock:" + t.Name()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	a := NewLock(client, key, time.Minute)
	b := NewLock(client, key, time.Minute)

	ok, err := a.TryAcquire(ctx, "holder-a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.TryAcquire(ctx, "holder-b")
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be rejected while lock is held")

	require.NoError(t, a.Release(ctx))

	ok, err = b.TryAcquire(ctx, "holder-b")
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free after release")
	require.NoError(t, b.Release(ctx))
}
