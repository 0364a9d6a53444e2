package httpx

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/domain/webhook"
	"github.com/gradlift/ranking-go/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs     *service.JobService
	Rankings *service.RankingService
	Rescore  core.RescoreRepository
	Signer   *webhook.Signer // Optional: enables the signed ingestion route
	DB       *sql.DB
	Queue    core.JobQueue
	Cache    core.ScoreCacheRepository
	Logger   *slog.Logger
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{Svc: services.Jobs}
	rankingHandlers := &RankingHandlers{Svc: services.Rankings}
	healthHandlers := &HealthHandlers{DB: services.DB, Queue: services.Queue, Cache: services.Cache}

	// Score event ingestion requires a signed request. Without a configured
	// signer the route is absent rather than open.
	if services.Signer != nil {
		verified := VerifySignature(services.Signer)
		mux.Handle("POST /v1/score-events", verified(http.HandlerFunc(jobHandlers.CreateScoreEvent)))
	}

	mux.HandleFunc("GET /v1/jobs/{id}", jobHandlers.GetJob)
	mux.HandleFunc("GET /v1/jobs/{id}/status", jobHandlers.GetJobStatus)
	mux.HandleFunc("GET /v1/jobs", jobHandlers.Stats)
	mux.HandleFunc("GET /v1/items/{item_ref}/history", jobHandlers.ItemHistory)

	mux.HandleFunc("GET /v1/rankings/{item_ref}", rankingHandlers.GetRanking)
	mux.HandleFunc("GET /v1/rankings", rankingHandlers.TopRankings)
	mux.HandleFunc("GET /v1/stats", rankingHandlers.GlobalStats)
	mux.HandleFunc("GET /v1/histogram", rankingHandlers.Histogram)

	if services.Rescore != nil {
		rescoreHandlers := &RescoreHandlers{Repo: services.Rescore}
		mux.HandleFunc("PUT /v1/rescore-policies", rescoreHandlers.UpsertPolicy)
		mux.HandleFunc("PATCH /v1/rescore-policies/{item_ref}", rescoreHandlers.SetPolicyActive)
	}

	mux.HandleFunc("GET /health", healthHandlers.Health)
	mux.HandleFunc("HEAD /health", healthHandlers.Health)

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
