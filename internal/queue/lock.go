package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a best-effort singleflight lock over Redis SET NX. Overlapping cron
// processes use it so only one runs a given tick; it is not a fencing lock
// and protects against duplication, not correctness.
type Lock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	token  string
}

// NewLock creates a Lock on the given key. The TTL bounds how long a crashed
// holder can block other processes.
func NewLock(client redis.UniversalClient, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl}
}

// TryAcquire attempts to take the lock with the given holder token.
// Returns false without error when another holder has it.
func (l *Lock) TryAcquire(ctx context.Context, token string) (bool, error) {
	status, err := l.client.SetArgs(ctx, l.key, token, redis.SetArgs{
		Mode: "NX",
		TTL:  l.ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, unavailable("acquire lock", err)
	}
	if status != "OK" {
		return false, nil
	}
	l.token = token
	return true, nil
}

// Release drops the lock if this holder still owns it. The compare-and-delete
// runs as a Lua script so an expired lock reacquired by another holder is
// never deleted out from under them.
func (l *Lock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	const script = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`
	if err := l.client.Eval(ctx, script, []string{l.key}, l.token).Err(); err != nil {
		return unavailable("release lock", err)
	}
	l.token = ""
	return nil
}
