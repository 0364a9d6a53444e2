package model

import "time"

// RankingRow is the current ranking position for an item, recomputed by the
// cron maintenance pass over committed composite scores.
type RankingRow struct {
	ItemRef       string    `json:"item_ref"       db:"item_ref"`
	Composite     float64   `json:"composite"      db:"composite"`
	Rank          int       `json:"rank"           db:"rank"`
	ConfigVersion string    `json:"config_version" db:"config_version"`
	ComputeRunID  string    `json:"compute_run_id" db:"compute_run_id"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// GlobalRankingStats holds population-level percentiles over committed scores.
// A single row (id=1) is upserted on each maintenance pass.
type GlobalRankingStats struct {
	TotalItems int       `json:"total_items" db:"total_items"`
	P50        float64   `json:"p50"         db:"p50"`
	P90        float64   `json:"p90"         db:"p90"`
	P99        float64   `json:"p99"         db:"p99"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// HistogramBucket is one bucket of the score distribution histogram.
// BucketID is floor(score / bucket_width).
type HistogramBucket struct {
	BucketID int `json:"bucket_id" db:"bucket_id"`
	Count    int `json:"count"     db:"count"`
}
