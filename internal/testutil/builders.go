// Package testutil provides testing utilities and helpers for the ranking pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gradlift/ranking-go/internal/domain/model"
)

// DefaultScoringDocument is a well-formed document accepted by the built-in
// scoring configs.
const DefaultScoringDocument = `{
	"academic": {"gpa": 3.7, "test_score": 88},
	"experience": {"internships": 2, "years_experience": 3}
}`

// EnqueueRequestBuilder provides a fluent interface for building EnqueueRequest objects for testing.
type EnqueueRequestBuilder struct {
	req *model.EnqueueRequest
}

// NewEnqueueRequest creates a new EnqueueRequestBuilder with sensible defaults.
func NewEnqueueRequest() *EnqueueRequestBuilder {
	return &EnqueueRequestBuilder{
		req: &model.EnqueueRequest{
			ItemRef:     "cand-" + uuid.NewString()[:8],
			Document:    json.RawMessage(DefaultScoringDocument),
			MaxAttempts: 3,
		},
	}
}

// WithItemRef sets the item reference.
func (b *EnqueueRequestBuilder) WithItemRef(itemRef string) *EnqueueRequestBuilder {
	b.req.ItemRef = itemRef
	return b
}

// WithDocument sets the document payload from a string.
func (b *EnqueueRequestBuilder) WithDocument(document string) *EnqueueRequestBuilder {
	b.req.Document = json.RawMessage(document)
	return b
}

// WithCallerKey sets the caller idempotency key.
func (b *EnqueueRequestBuilder) WithCallerKey(key string) *EnqueueRequestBuilder {
	b.req.CallerKey = key
	return b
}

// WithMaxAttempts sets the attempt budget.
func (b *EnqueueRequestBuilder) WithMaxAttempts(n int) *EnqueueRequestBuilder {
	b.req.MaxAttempts = n
	return b
}

// Build returns the constructed EnqueueRequest.
func (b *EnqueueRequestBuilder) Build() *model.EnqueueRequest {
	return b.req
}

// ScoringJobBuilder provides a fluent interface for building ScoringJob objects for testing.
type ScoringJobBuilder struct {
	job *model.ScoringJob
}

// NewScoringJob creates a new ScoringJobBuilder with sensible defaults.
func NewScoringJob() *ScoringJobBuilder {
	itemRef := fmt.Sprintf("cand-%s", uuid.NewString()[:8])
	return &ScoringJobBuilder{
		job: &model.ScoringJob{
			ID:             uuid.NewString(),
			ItemRef:        itemRef,
			Document:       json.RawMessage(DefaultScoringDocument),
			ConfigVersion:  "v1",
			IdempotencyKey: model.DeriveIdempotencyKey(itemRef, "v1", ""),
			Status:         model.JobStatusPending,
			MaxAttempts:    3,
			EnqueuedAt:     TestTime(),
			UpdatedAt:      TestTime(),
		},
	}
}

// WithID sets the job ID.
func (b *ScoringJobBuilder) WithID(id string) *ScoringJobBuilder {
	b.job.ID = id
	return b
}

// WithItemRef sets the item reference and rederives the idempotency key.
func (b *ScoringJobBuilder) WithItemRef(itemRef string) *ScoringJobBuilder {
	b.job.ItemRef = itemRef
	b.job.IdempotencyKey = model.DeriveIdempotencyKey(itemRef, b.job.ConfigVersion, "")
	return b
}

// WithConfigVersion sets the pinned config version and rederives the idempotency key.
func (b *ScoringJobBuilder) WithConfigVersion(version string) *ScoringJobBuilder {
	b.job.ConfigVersion = version
	b.job.IdempotencyKey = model.DeriveIdempotencyKey(b.job.ItemRef, version, "")
	return b
}

// WithIdempotencyKey overrides the derived idempotency key.
func (b *ScoringJobBuilder) WithIdempotencyKey(key string) *ScoringJobBuilder {
	b.job.IdempotencyKey = key
	return b
}

// WithDocument sets the document payload from a string.
func (b *ScoringJobBuilder) WithDocument(document string) *ScoringJobBuilder {
	b.job.Document = json.RawMessage(document)
	return b
}

// WithStatus sets the job status.
func (b *ScoringJobBuilder) WithStatus(status model.JobStatus) *ScoringJobBuilder {
	b.job.Status = status
	return b
}

// WithAttempts sets attempt_count and max_attempts together.
func (b *ScoringJobBuilder) WithAttempts(count, maximum int) *ScoringJobBuilder {
	b.job.AttemptCount = count
	b.job.MaxAttempts = maximum
	return b
}

// WithEnqueuedAt sets the enqueue timestamp.
func (b *ScoringJobBuilder) WithEnqueuedAt(t time.Time) *ScoringJobBuilder {
	b.job.EnqueuedAt = t
	return b
}

// Build returns the constructed ScoringJob.
func (b *ScoringJobBuilder) Build() *model.ScoringJob {
	return b.job
}

// ScoreResultBuilder provides a fluent interface for building ScoreResult objects for testing.
type ScoreResultBuilder struct {
	result *model.ScoreResult
}

// NewScoreResult creates a ScoreResultBuilder populated from a job.
func NewScoreResult(job *model.ScoringJob) *ScoreResultBuilder {
	return &ScoreResultBuilder{
		result: &model.ScoreResult{
			ID:             uuid.NewString(),
			JobID:          job.ID,
			ItemRef:        job.ItemRef,
			IdempotencyKey: job.IdempotencyKey,
			Score:          68.42,
			Breakdown:      json.RawMessage(`{"academic": 90.7, "experience": 35}`),
			ConfigVersion:  job.ConfigVersion,
			InputChecksum:  "deadbeef",
			ComputeRunID:   uuid.NewString(),
			ComputedAt:     TestTime(),
		},
	}
}

// WithScore sets the composite score.
func (b *ScoreResultBuilder) WithScore(score float64) *ScoreResultBuilder {
	b.result.Score = score
	return b
}

// WithComputedAt sets the computation timestamp.
func (b *ScoreResultBuilder) WithComputedAt(t time.Time) *ScoreResultBuilder {
	b.result.ComputedAt = t
	return b
}

// Build returns the constructed ScoreResult.
func (b *ScoreResultBuilder) Build() *model.ScoreResult {
	return b.result
}
