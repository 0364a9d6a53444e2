// Package httpx provides the JSON API in front of the ranking job pipeline.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/service"
)

const defaultHistoryLimit = 20

// JobHandlers provides HTTP handlers for scoring job operations.
type JobHandlers struct {
	Svc *service.JobService
}

// CreateScoreEvent accepts a score event and enqueues a scoring job for it.
// The route sits behind signature verification; by the time this runs the
// payload is authenticated.
func (h *JobHandlers) CreateScoreEvent(w http.ResponseWriter, r *http.Request) {
	var req model.EnqueueRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Enqueue(r.Context(), &req)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "enqueue_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}

// GetJob returns the raw job row.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// GetJobStatus returns the job's status with its result when one is
// committed. Terminal statuses are definitive.
func (h *JobHandlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Svc.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// Stats returns job counts per state plus queue depths.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	pending, processing, err := h.Svc.QueueDepth(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"jobs": stats,
		"queue": map[string]int64{
			"pending":    pending,
			"processing": processing,
		},
	})
}

// ItemHistory returns the item's committed score timeline, newest first.
func (h *JobHandlers) ItemHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultHistoryLimit)

	history, err := h.Svc.History(r.Context(), r.PathValue("item_ref"), limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, history)
}

// parseIntQuery parses an integer query parameter, falling back to def for
// missing or malformed values.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
