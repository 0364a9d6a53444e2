package model

import (
	"encoding/json"
	"time"
)

// ScoreResult is the committed outcome of a scoring job. At most one result
// exists per idempotency key, enforced by a uniqueness constraint in the
// database rather than application-level checking alone.
type ScoreResult struct {
	ID             string          `json:"id"              db:"id"`
	JobID          string          `json:"job_id"          db:"job_id"`
	ItemRef        string          `json:"item_ref"        db:"item_ref"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	Score          float64         `json:"score"           db:"score"`
	Breakdown      json.RawMessage `json:"breakdown"       db:"breakdown"`
	ConfigVersion  string          `json:"config_version"  db:"config_version"`
	// InputChecksum is a SHA-256 over the canonical scoring inputs, kept for
	// audit so a result can be tied back to the exact document it scored.
	InputChecksum string    `json:"input_checksum" db:"input_checksum"`
	ComputeRunID  string    `json:"compute_run_id" db:"compute_run_id"`
	ComputedAt    time.Time `json:"computed_at"    db:"computed_at"`
}

// ScoreHistoryEntry is one point in an item's score timeline, appended on
// every committed result.
type ScoreHistoryEntry struct {
	ItemRef       string    `json:"item_ref"       db:"item_ref"`
	Score         float64   `json:"score"          db:"score"`
	ConfigVersion string    `json:"config_version" db:"config_version"`
	ComputeRunID  string    `json:"compute_run_id" db:"compute_run_id"`
	ComputedAt    time.Time `json:"computed_at"    db:"computed_at"`
}
