package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gradlift/ranking-go/internal/domain/model"
)

const (
	rankingCacheKeyPrefix = "ranking:cache:item:"
	statsCacheKey         = "ranking:cache:global_stats"
)

// ScoreCacheRepo caches ranking read-path responses in Redis so the API can
// serve hot items without touching Postgres. Entries are invalidated when a
// new score commits for the item and expire on TTL otherwise.
type ScoreCacheRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewScoreCacheRepo creates a ScoreCacheRepo with the given client and TTL.
func NewScoreCacheRepo(client redis.UniversalClient, ttl time.Duration) *ScoreCacheRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScoreCacheRepo{client: client, ttl: ttl}
}

// GetRanking returns the cached ranking row for an item, or nil on a miss.
func (r *ScoreCacheRepo) GetRanking(ctx context.Context, itemRef string) (*model.RankingRow, error) {
	if itemRef == "" {
		return nil, errors.New("item ref cannot be empty")
	}

	raw, err := r.client.Get(ctx, rankingCacheKeyPrefix+itemRef).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get ranking: %w", err)
	}

	var row model.RankingRow
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		_ = r.client.Del(ctx, rankingCacheKeyPrefix+itemRef).Err()
		return nil, nil
	}
	return &row, nil
}

// SetRanking stores a ranking row under the item's cache key.
func (r *ScoreCacheRepo) SetRanking(ctx context.Context, row *model.RankingRow) error {
	if row == nil || row.ItemRef == "" {
		return errors.New("ranking row with item ref is required")
	}

	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal ranking row: %w", err)
	}
	if err := r.client.Set(ctx, rankingCacheKeyPrefix+row.ItemRef, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set ranking: %w", err)
	}
	return nil
}

// InvalidateItem drops the cached ranking for an item. Called after a new
// score commits so readers never see the stale composite past one round trip.
func (r *ScoreCacheRepo) InvalidateItem(ctx context.Context, itemRef string) (bool, error) {
	if itemRef == "" {
		return false, errors.New("item ref cannot be empty")
	}

	n, err := r.client.Del(ctx, rankingCacheKeyPrefix+itemRef).Result()
	if err != nil {
		return false, fmt.Errorf("redis del ranking: %w", err)
	}
	return n > 0, nil
}

// GetGlobalStats returns the cached global stats row, or nil on a miss.
func (r *ScoreCacheRepo) GetGlobalStats(ctx context.Context) (*model.GlobalRankingStats, error) {
	raw, err := r.client.Get(ctx, statsCacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get stats: %w", err)
	}

	var stats model.GlobalRankingStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		_ = r.client.Del(ctx, statsCacheKey).Err()
		return nil, nil
	}
	return &stats, nil
}

// SetGlobalStats stores the global stats row.
func (r *ScoreCacheRepo) SetGlobalStats(ctx context.Context, stats *model.GlobalRankingStats) error {
	if stats == nil {
		return errors.New("stats is required")
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal global stats: %w", err)
	}
	if err := r.client.Set(ctx, statsCacheKey, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}
	return nil
}

// InvalidateGlobalStats drops the cached stats row after a maintenance pass.
func (r *ScoreCacheRepo) InvalidateGlobalStats(ctx context.Context) error {
	if err := r.client.Del(ctx, statsCacheKey).Err(); err != nil {
		return fmt.Errorf("redis del stats: %w", err)
	}
	return nil
}

// Health checks the health of the Redis connection.
func (r *ScoreCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
