package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
)

// RankingServiceOptions groups dependencies for RankingService.
type RankingServiceOptions struct {
	Rankings core.RankingRepository    // Required: ranking repository
	Cache    core.ScoreCacheRepository // Optional: read cache in front of Postgres
	Logger   *slog.Logger              // Optional: structured logger
}

// RankingService serves the derived ranking state with a cache-aside Redis
// layer. Cache misses and cache errors both fall through to Postgres; the
// cache can disappear entirely and reads keep working.
type RankingService struct {
	rankings core.RankingRepository
	cache    core.ScoreCacheRepository
	logger   *slog.Logger
}

// NewRankingService constructs a new RankingService.
func NewRankingService(opts RankingServiceOptions) (*RankingService, error) {
	if opts.Rankings == nil {
		return nil, errors.New("RankingRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "ranking_service")
	}

	return &RankingService{
		rankings: opts.Rankings,
		cache:    opts.Cache,
		logger:   logger,
	}, nil
}

// MustNewRankingService constructs a new RankingService and panics on error.
func MustNewRankingService(opts RankingServiceOptions) *RankingService {
	svc, err := NewRankingService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create RankingService: %v", err))
	}
	return svc
}

// GetRanking returns the item's current ranking row, cache first.
func (s *RankingService) GetRanking(ctx context.Context, itemRef string) (*model.RankingRow, error) {
	if s.cache != nil {
		row, err := s.cache.GetRanking(ctx, itemRef)
		if err != nil {
			s.warnCache(ctx, "ranking cache read failed", err)
		} else if row != nil {
			return row, nil
		}
	}

	row, err := s.rankings.GetRanking(ctx, itemRef)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRanking(ctx, row); err != nil {
			s.warnCache(ctx, "ranking cache write failed", err)
		}
	}
	return row, nil
}

// TopRankings returns the highest ranked items.
func (s *RankingService) TopRankings(ctx context.Context, limit int) ([]model.RankingRow, error) {
	if limit < 1 {
		return nil, apperrors.Validation("limit must be positive")
	}
	return s.rankings.TopRankings(ctx, limit)
}

// GlobalStats returns the population-level ranking statistics, cache first.
func (s *RankingService) GlobalStats(ctx context.Context) (*model.GlobalRankingStats, error) {
	if s.cache != nil {
		stats, err := s.cache.GetGlobalStats(ctx)
		if err != nil {
			s.warnCache(ctx, "global stats cache read failed", err)
		} else if stats != nil {
			return stats, nil
		}
	}

	stats, err := s.rankings.GetGlobalStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetGlobalStats(ctx, stats); err != nil {
			s.warnCache(ctx, "global stats cache write failed", err)
		}
	}
	return stats, nil
}

// Histogram returns the current score distribution buckets.
func (s *RankingService) Histogram(ctx context.Context) ([]model.HistogramBucket, error) {
	return s.rankings.GetHistogram(ctx)
}

func (s *RankingService) warnCache(ctx context.Context, msg string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, "error", err)
	}
}
