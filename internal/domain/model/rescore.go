package model

import (
	"encoding/json"
	"time"
)

// RescorePolicy schedules periodic rescoring for an item. The cron scheduler
// enqueues a fresh scoring job whenever last_queued_at + interval has passed.
// Missed ticks are not backfilled; an overdue policy fires once on the next
// tick regardless of how many intervals elapsed while the scheduler was down.
type RescorePolicy struct {
	ID              string          `json:"id"                       db:"id"`
	ItemRef         string          `json:"item_ref"                 db:"item_ref"`
	Document        json.RawMessage `json:"document"                 db:"document"`
	IntervalSeconds int64           `json:"interval_seconds"         db:"interval_seconds"`
	Active          bool            `json:"active"                   db:"active"`
	LastQueuedAt    *time.Time      `json:"last_queued_at,omitempty" db:"last_queued_at"`
	CreatedAt       time.Time       `json:"created_at"               db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"               db:"updated_at"`
}

// Interval returns the rescore interval as a duration.
func (p *RescorePolicy) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}
