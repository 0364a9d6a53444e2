package httpx

import (
	"database/sql"
	"net/http"

	"github.com/gradlift/ranking-go/internal/core"
)

// HealthHandlers reports readiness of the pipeline's backing stores.
type HealthHandlers struct {
	DB    *sql.DB
	Queue core.JobQueue
	Cache core.ScoreCacheRepository
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health pings Postgres and Redis and reports per-dependency status.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if h.DB != nil {
		checks["postgres"] = h.checkStatus(h.DB.PingContext(r.Context()), &healthy)
	}
	if h.Queue != nil {
		checks["redis_queue"] = h.checkStatus(h.Queue.Health(r.Context()), &healthy)
	}
	if h.Cache != nil {
		checks["redis_cache"] = h.checkStatus(h.Cache.Health(r.Context()), &healthy)
	}

	resp := healthResponse{Status: "ok", Checks: checks}
	code := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, resp)
}

func (h *HealthHandlers) checkStatus(err error, healthy *bool) string {
	if err != nil {
		*healthy = false
		return err.Error()
	}
	return "ok"
}
