// Package model defines the core data types used throughout the ranking pipeline.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// JobStatus represents the current status of a scoring job.
type JobStatus string

const (
	// JobStatusPending indicates a job is waiting in the queue.
	JobStatusPending JobStatus = "pending"
	// JobStatusInProgress indicates a worker has claimed the job.
	JobStatusInProgress JobStatus = "in_progress"
	// JobStatusCompleted indicates the job finished with a committed result.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed permanently or exhausted its retry budget.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusInProgress || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Terminal returns true for statuses from which no further transition occurs.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ScoringJob represents one scoring request moving through the queue.
// ConfigVersion is pinned at enqueue time so the result is always traceable
// to the configuration that produced it, even if a newer version is
// published while the job is queued.
type ScoringJob struct {
	ID             string          `json:"id"                     db:"id"`
	ItemRef        string          `json:"item_ref"               db:"item_ref"`
	Document       json.RawMessage `json:"document"               db:"document"`
	ConfigVersion  string          `json:"config_version"         db:"config_version"`
	IdempotencyKey string          `json:"idempotency_key"        db:"idempotency_key"`
	Status         JobStatus       `json:"status"                 db:"status"`
	AttemptCount   int             `json:"attempt_count"          db:"attempt_count"`
	MaxAttempts    int             `json:"max_attempts"           db:"max_attempts"`
	LastError      *string         `json:"last_error,omitempty"   db:"last_error"`
	EnqueuedAt     time.Time       `json:"enqueued_at"            db:"enqueued_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"   db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt      time.Time       `json:"updated_at"             db:"updated_at"`
}

// EnqueueRequest represents a request to enqueue a scoring job.
type EnqueueRequest struct {
	ItemRef  string          `json:"item_ref"`
	Document json.RawMessage `json:"document"`
	// CallerKey is an optional caller-supplied idempotency component. Two
	// requests for the same item and config version with distinct caller
	// keys produce distinct results.
	CallerKey   string `json:"caller_key,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty"`
}

// Validate validates the EnqueueRequest fields.
func (r *EnqueueRequest) Validate() error {
	if strings.TrimSpace(r.ItemRef) == "" {
		return errors.New("item ref is required")
	}
	if len(r.Document) == 0 {
		return errors.New("document is required")
	}
	if !json.Valid(r.Document) {
		return errors.New("document must be valid JSON")
	}
	if r.MaxAttempts < 0 {
		return errors.New("max attempts must be >= 0")
	}
	return nil
}

// DeriveIdempotencyKey derives the deterministic idempotency key for a job.
// The key is a hex-encoded SHA-256 over item_ref and config_version, plus the
// caller-supplied key when present. Redelivered jobs carry the same key, so
// the storage-level uniqueness constraint collapses them to a single result.
func DeriveIdempotencyKey(itemRef, configVersion, callerKey string) string {
	h := sha256.New()
	h.Write([]byte(itemRef))
	h.Write([]byte{0})
	h.Write([]byte(configVersion))
	if callerKey != "" {
		h.Write([]byte{0})
		h.Write([]byte(callerKey))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// JobStats represents counts of jobs in each state.
type JobStats struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// JobStatusResponse represents the status information for a specific job.
// A terminal status is definitive: callers never see an indefinite pending
// once the pipeline has finished with the job.
type JobStatusResponse struct {
	JobID       string       `json:"job_id"`
	Status      JobStatus    `json:"status"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	LastError   *string      `json:"last_error,omitempty"`
	Result      *ScoreResult `json:"result,omitempty"`
}
