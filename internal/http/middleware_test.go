package httpx

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlift/ranking-go/internal/domain/webhook"
)

func testSigner(t *testing.T) *webhook.Signer {
	t.Helper()
	signer, err := webhook.NewSigner("test-ingest-secret", 5*time.Minute)
	require.NoError(t, err)
	return signer
}

func TestVerifySignature_ValidRequest(t *testing.T) {
	signer := testSigner(t)
	body := []byte(`{"item_ref":"item-1"}`)
	ts, sig := signer.Sign(body, time.Now())

	var seen []byte
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = b
		w.WriteHeader(http.StatusAccepted)
	})

	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", bytes.NewReader(body))
	r.Header.Set(webhook.HeaderTimestamp, ts)
	r.Header.Set(webhook.HeaderSignature, sig)
	w := httptest.NewRecorder()

	VerifySignature(signer)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, body, seen, "handler should see the original body")
}

func TestVerifySignature_RejectsBadSignature(t *testing.T) {
	signer := testSigner(t)
	body := []byte(`{"item_ref":"item-1"}`)
	ts, _ := signer.Sign(body, time.Now())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", bytes.NewReader(body))
	r.Header.Set(webhook.HeaderTimestamp, ts)
	r.Header.Set(webhook.HeaderSignature, strings.Repeat("0", 64))
	w := httptest.NewRecorder()

	VerifySignature(signer)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_signature")
}

func TestVerifySignature_RejectsStaleTimestamp(t *testing.T) {
	signer := testSigner(t)
	body := []byte(`{"item_ref":"item-1"}`)
	ts, sig := signer.Sign(body, time.Now().Add(-time.Hour))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", bytes.NewReader(body))
	r.Header.Set(webhook.HeaderTimestamp, ts)
	r.Header.Set(webhook.HeaderSignature, sig)
	w := httptest.NewRecorder()

	VerifySignature(signer)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifySignature_RejectsMissingHeaders(t *testing.T) {
	signer := testSigner(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", strings.NewReader("{}"))
	w := httptest.NewRecorder()

	VerifySignature(signer)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifySignature_RejectsOversizedBody(t *testing.T) {
	signer := testSigner(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	big := bytes.Repeat([]byte("a"), maxSignedBodyBytes+1)
	r := httptest.NewRequest(http.MethodPost, "/v1/score-events", bytes.NewReader(big))
	w := httptest.NewRecorder()

	VerifySignature(signer)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLogging_CapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	w := httptest.NewRecorder()

	Logging(logger)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusTeapot, w.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/v1/jobs"`)
}

func TestRecover_HandlesPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	r := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	w := httptest.NewRecorder()

	Recover(logger)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic")
}
