package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gradlift/ranking-go/internal/domain/model"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
)

// RankingRepo maintains the derived ranking tables. Rank positions,
// population percentiles, and the score histogram are recomputed in bulk
// by the cron maintenance pass rather than on every commit.
type RankingRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRankingRepo creates a new RankingRepo.
func NewRankingRepo(db *sql.DB) *RankingRepo {
	return &RankingRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewRankingRepoWithTimeProvider creates a RankingRepo with a custom TimeProvider.
func NewRankingRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RankingRepo {
	return &RankingRepo{DB: db, timeProvider: tp}
}

// RecomputeRanks reassigns dense rank positions over all items ordered by
// composite score descending. Ties break on item_ref so ranks are stable
// between passes with unchanged scores.
func (r *RankingRepo) RecomputeRanks(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE item_rankings ir
		SET rank = ranked.pos, updated_at = $1
		FROM (
			SELECT item_ref,
			       ROW_NUMBER() OVER (ORDER BY composite DESC, item_ref ASC) AS pos
			FROM item_rankings
		) ranked
		WHERE ir.item_ref = ranked.item_ref
		  AND (ir.rank IS NULL OR ir.rank <> ranked.pos)
	`, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("recompute ranks: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// RefreshGlobalStats upserts the single global stats row with population
// percentiles over current composite scores.
func (r *RankingRepo) RefreshGlobalStats(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO global_ranking_stats (id, total_items, p50, p90, p99, updated_at)
		SELECT 1,
		       COUNT(*),
		       COALESCE(percentile_cont(0.50) WITHIN GROUP (ORDER BY composite), 0),
		       COALESCE(percentile_cont(0.90) WITHIN GROUP (ORDER BY composite), 0),
		       COALESCE(percentile_cont(0.99) WITHIN GROUP (ORDER BY composite), 0),
		       $1
		FROM item_rankings
		ON CONFLICT (id) DO UPDATE SET
			total_items = EXCLUDED.total_items,
			p50 = EXCLUDED.p50,
			p90 = EXCLUDED.p90,
			p99 = EXCLUDED.p99,
			updated_at = EXCLUDED.updated_at
	`, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("refresh global stats: %w", err))
	}
	return nil
}

// RebuildHistogram rebuilds the score distribution histogram with the given
// bucket width. The rebuild replaces the table contents in one transaction.
func (r *RankingRepo) RebuildHistogram(ctx context.Context, bucketWidth float64) error {
	if bucketWidth <= 0 {
		return apperrors.ValidationField("bucket width must be positive", "bucket_width")
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("begin histogram rebuild: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM score_histogram`); err != nil {
		return apperrors.MapDBError(fmt.Errorf("clear histogram: %w", err))
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO score_histogram (bucket_id, count)
		SELECT floor(composite / $1)::int AS bucket_id, COUNT(*)
		FROM item_rankings
		GROUP BY 1
	`, bucketWidth)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("rebuild histogram: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return apperrors.MapDBError(fmt.Errorf("commit histogram rebuild: %w", err))
	}
	return nil
}

// GetRanking returns the current ranking row for an item. Rank is zero until
// the first maintenance pass after the item's score was committed.
func (r *RankingRepo) GetRanking(ctx context.Context, itemRef string) (*model.RankingRow, error) {
	var (
		row   model.RankingRow
		rank  sql.NullInt64
		runID sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT item_ref, composite, rank, config_version, compute_run_id, updated_at
		FROM item_rankings
		WHERE item_ref = $1
	`, itemRef).Scan(&row.ItemRef, &row.Composite, &rank, &row.ConfigVersion, &runID, &row.UpdatedAt)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get ranking: %w", err))
	}
	if rank.Valid {
		row.Rank = int(rank.Int64)
	}
	if runID.Valid {
		row.ComputeRunID = runID.String
	}
	return &row, nil
}

// TopRankings returns the best-ranked items, highest composite first.
func (r *RankingRepo) TopRankings(ctx context.Context, limit int) ([]model.RankingRow, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT item_ref, composite, rank, config_version, compute_run_id, updated_at
		FROM item_rankings
		ORDER BY composite DESC, item_ref ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list rankings: %w", err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []model.RankingRow
	for rows.Next() {
		var (
			row   model.RankingRow
			rank  sql.NullInt64
			runID sql.NullString
		)
		if err := rows.Scan(&row.ItemRef, &row.Composite, &rank, &row.ConfigVersion, &runID, &row.UpdatedAt); err != nil {
			return nil, apperrors.MapDBError(fmt.Errorf("scan ranking: %w", err))
		}
		if rank.Valid {
			row.Rank = int(rank.Int64)
		}
		if runID.Valid {
			row.ComputeRunID = runID.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate rankings: %w", err))
	}
	return out, nil
}

// GetGlobalStats returns the population percentile row. Absent until the
// first maintenance pass.
func (r *RankingRepo) GetGlobalStats(ctx context.Context) (*model.GlobalRankingStats, error) {
	var s model.GlobalRankingStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT total_items, p50, p90, p99, updated_at
		FROM global_ranking_stats
		WHERE id = 1
	`).Scan(&s.TotalItems, &s.P50, &s.P90, &s.P99, &s.UpdatedAt)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get global stats: %w", err))
	}
	return &s, nil
}

// GetHistogram returns all histogram buckets ordered by bucket id.
func (r *RankingRepo) GetHistogram(ctx context.Context) ([]model.HistogramBucket, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT bucket_id, count
		FROM score_histogram
		ORDER BY bucket_id ASC
	`)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get histogram: %w", err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var buckets []model.HistogramBucket
	for rows.Next() {
		var b model.HistogramBucket
		if err := rows.Scan(&b.BucketID, &b.Count); err != nil {
			return nil, apperrors.MapDBError(fmt.Errorf("scan histogram bucket: %w", err))
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate histogram: %w", err))
	}
	return buckets, nil
}

// PruneAuditLog deletes audit entries older than the retention window.
func (r *RankingRepo) PruneAuditLog(ctx context.Context, retainDays int) (int64, error) {
	if retainDays <= 0 {
		retainDays = 90
	}
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM ranking_audit_log
		WHERE created_at < $1 - make_interval(days => $2)
	`, r.timeProvider.Now().UTC(), retainDays)
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("prune audit log: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
