package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/domain/scoring"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
	"github.com/gradlift/ranking-go/internal/mocks"
	"github.com/gradlift/ranking-go/internal/service"
)

type jobHandlerFixture struct {
	handlers *JobHandlers
	jobs     *mocks.MockJobRepository
	results  *mocks.MockResultRepository
	queue    *mocks.MockJobQueue
}

func newJobHandlerFixture(t *testing.T) *jobHandlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	jobs := mocks.NewMockJobRepository(ctrl)
	results := mocks.NewMockResultRepository(ctrl)
	queue := mocks.NewMockJobQueue(ctrl)

	resolver, err := scoring.NewResolver("v1", "", nil)
	require.NoError(t, err)

	svc := service.MustNewJobService(service.JobServiceOptions{
		Jobs:     jobs,
		Results:  results,
		Queue:    queue,
		Resolver: resolver,
	})
	return &jobHandlerFixture{
		handlers: &JobHandlers{Svc: svc},
		jobs:     jobs,
		results:  results,
		queue:    queue,
	}
}

func TestCreateScoreEvent_Success(t *testing.T) {
	f := newJobHandlerFixture(t)

	f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	body, _ := json.Marshal(model.EnqueueRequest{
		ItemRef:  "item-1",
		Document: json.RawMessage(`{"academic":{"gpa":3.5,"test_score":1400}}`),
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", bytes.NewReader(body))
	w := httptest.NewRecorder()

	f.handlers.CreateScoreEvent(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var got model.ScoringJob
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "item-1", got.ItemRef)
	assert.Equal(t, "v1", got.ConfigVersion)
	assert.Equal(t, model.JobStatusPending, got.Status)
}

func TestCreateScoreEvent_InvalidJSON(t *testing.T) {
	f := newJobHandlerFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", bytes.NewBufferString("{bad"))
	w := httptest.NewRecorder()

	f.handlers.CreateScoreEvent(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateScoreEvent_ValidationFailure(t *testing.T) {
	f := newJobHandlerFixture(t)

	body := []byte(`{"item_ref":"","document":{"academic":{}}}`)
	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", bytes.NewReader(body))
	w := httptest.NewRecorder()

	f.handlers.CreateScoreEvent(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "enqueue_failed", got["error"])
	assert.Contains(t, got["message"], "item ref is required")
}

func TestGetJob_Success(t *testing.T) {
	f := newJobHandlerFixture(t)

	expected := &model.ScoringJob{ID: "job-1", ItemRef: "item-1", Status: model.JobStatusCompleted}
	f.jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(expected, nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	f.handlers.GetJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.ScoringJob
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, expected.ID, got.ID)
}

func TestGetJob_NotFound(t *testing.T) {
	f := newJobHandlerFixture(t)

	f.jobs.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, apperrors.NotFound("job not found"))

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil)
	r.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	f.handlers.GetJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "not_found", got["error"])
}

func TestGetJobStatus_Success(t *testing.T) {
	f := newJobHandlerFixture(t)

	status := &model.JobStatusResponse{JobID: "job-1", Status: model.JobStatusCompleted}
	f.results.EXPECT().GetStatus(gomock.Any(), "job-1").Return(status, nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1/status", nil)
	r.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	f.handlers.GetJobStatus(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.JobStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.JobStatusCompleted, got.Status)
}

func TestStats_Success(t *testing.T) {
	f := newJobHandlerFixture(t)

	f.jobs.EXPECT().Stats(gomock.Any()).Return(&model.JobStats{Pending: 3, Completed: 10}, nil)
	f.queue.EXPECT().Depth(gomock.Any()).Return(int64(3), int64(1), nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	w := httptest.NewRecorder()

	f.handlers.Stats(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Jobs  model.JobStats `json:"jobs"`
		Queue struct {
			Pending    int64 `json:"pending"`
			Processing int64 `json:"processing"`
		} `json:"queue"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 3, got.Jobs.Pending)
	assert.Equal(t, int64(1), got.Queue.Processing)
}

func TestStats_QueueUnavailable(t *testing.T) {
	f := newJobHandlerFixture(t)

	f.jobs.EXPECT().Stats(gomock.Any()).Return(&model.JobStats{}, nil)
	f.queue.EXPECT().Depth(gomock.Any()).Return(int64(0), int64(0), errors.New("redis down"))

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	w := httptest.NewRecorder()

	f.handlers.Stats(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestItemHistory_Success(t *testing.T) {
	f := newJobHandlerFixture(t)

	history := []model.ScoreHistoryEntry{{ItemRef: "item-1", Score: 72.5, ConfigVersion: "v1"}}
	f.results.EXPECT().HistoryForItem(gomock.Any(), "item-1", 5).Return(history, nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/items/item-1/history?limit=5", nil)
	r.SetPathValue("item_ref", "item-1")
	w := httptest.NewRecorder()

	f.handlers.ItemHistory(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []model.ScoreHistoryEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "item-1", got[0].ItemRef)
}

func TestItemHistory_DefaultLimit(t *testing.T) {
	f := newJobHandlerFixture(t)

	f.results.EXPECT().
		HistoryForItem(gomock.Any(), "item-1", defaultHistoryLimit).
		Return(nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/v1/items/item-1/history?limit=junk", nil)
	r.SetPathValue("item_ref", "item-1")
	w := httptest.NewRecorder()

	f.handlers.ItemHistory(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
