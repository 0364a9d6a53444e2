package httpx

import (
	"net/http"

	"github.com/gradlift/ranking-go/internal/service"
)

const defaultTopLimit = 50

// RankingHandlers provides HTTP handlers for the derived ranking state.
type RankingHandlers struct {
	Svc *service.RankingService
}

// GetRanking returns the item's current ranking row.
func (h *RankingHandlers) GetRanking(w http.ResponseWriter, r *http.Request) {
	row, err := h.Svc.GetRanking(r.Context(), r.PathValue("item_ref"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

// TopRankings returns the highest ranked items.
func (h *RankingHandlers) TopRankings(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultTopLimit)

	rows, err := h.Svc.TopRankings(r.Context(), limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

// GlobalStats returns the population-level ranking statistics.
func (h *RankingHandlers) GlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.GlobalStats(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// Histogram returns the current score distribution.
func (h *RankingHandlers) Histogram(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.Svc.Histogram(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buckets)
}
