package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/domain/model"
)

// RescoreHandlers provides HTTP handlers for periodic rescore policies.
type RescoreHandlers struct {
	Repo core.RescoreRepository
}

type upsertRescorePolicyRequest struct {
	ItemRef         string          `json:"item_ref"`
	Document        json.RawMessage `json:"document"`
	IntervalSeconds int64           `json:"interval_seconds"`
	Active          *bool           `json:"active,omitempty"`
}

// UpsertPolicy creates or replaces the rescore policy for an item.
func (h *RescoreHandlers) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	var req upsertRescorePolicyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.ItemRef == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation_failed",
			Err:     errors.New("item ref is required"),
		})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	policy := &model.RescorePolicy{
		ID:              uuid.NewString(),
		ItemRef:         req.ItemRef,
		Document:        req.Document,
		IntervalSeconds: req.IntervalSeconds,
		Active:          active,
	}

	if err := h.Repo.Upsert(r.Context(), policy); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, policy)
}

type setRescoreActiveRequest struct {
	Active bool `json:"active"`
}

// SetPolicyActive pauses or resumes the item's rescore policy.
func (h *RescoreHandlers) SetPolicyActive(w http.ResponseWriter, r *http.Request) {
	var req setRescoreActiveRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Repo.SetActive(r.Context(), r.PathValue("item_ref"), req.Active); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"item_ref": r.PathValue("item_ref"),
		"active":   req.Active,
	})
}
