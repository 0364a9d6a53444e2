package webhook

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", 5*time.Minute)
	require.NoError(t, err)
	return s
}

func TestNewSigner(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		_, err := NewSigner("", time.Minute)
		assert.Error(t, err)
	})

	t.Run("requires positive skew", func(t *testing.T) {
		_, err := NewSigner("secret", 0)
		assert.Error(t, err)
	})
}

func TestSigner_SignVerify(t *testing.T) {
	s := newTestSigner(t)
	now := time.Unix(1735689600, 0)
	body := []byte(`{"job_id":"abc","score":68.42}`)

	t.Run("round trip", func(t *testing.T) {
		ts, sig := s.Sign(body, now)
		assert.Equal(t, strconv.FormatInt(now.Unix(), 10), ts)
		assert.Contains(t, sig, "sha256=")
		assert.NoError(t, s.Verify(body, ts, sig, now))
	})

	t.Run("verifies within skew", func(t *testing.T) {
		ts, sig := s.Sign(body, now)
		assert.NoError(t, s.Verify(body, ts, sig, now.Add(4*time.Minute)))
		assert.NoError(t, s.Verify(body, ts, sig, now.Add(-4*time.Minute)))
	})

	t.Run("rejects stale timestamp", func(t *testing.T) {
		ts, sig := s.Sign(body, now)
		err := s.Verify(body, ts, sig, now.Add(6*time.Minute))
		assert.ErrorIs(t, err, ErrStaleTimestamp)
	})

	t.Run("rejects future timestamp beyond skew", func(t *testing.T) {
		ts, sig := s.Sign(body, now)
		err := s.Verify(body, ts, sig, now.Add(-6*time.Minute))
		assert.ErrorIs(t, err, ErrStaleTimestamp)
	})

	t.Run("rejects tampered body", func(t *testing.T) {
		ts, sig := s.Sign(body, now)
		err := s.Verify([]byte(`{"job_id":"abc","score":99.0}`), ts, sig, now)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("rejects tampered timestamp", func(t *testing.T) {
		_, sig := s.Sign(body, now)
		other := strconv.FormatInt(now.Add(time.Minute).Unix(), 10)
		err := s.Verify(body, other, sig, now)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		other, err := NewSigner("other-secret", 5*time.Minute)
		require.NoError(t, err)
		ts, sig := s.Sign(body, now)
		assert.ErrorIs(t, other.Verify(body, ts, sig, now), ErrSignatureMismatch)
	})

	t.Run("missing headers", func(t *testing.T) {
		_, sig := s.Sign(body, now)
		assert.ErrorIs(t, s.Verify(body, "", sig, now), ErrMissingTimestamp)
		assert.ErrorIs(t, s.Verify(body, "123", "", now), ErrMissingSignature)
	})

	t.Run("malformed signature prefix", func(t *testing.T) {
		ts, _ := s.Sign(body, now)
		err := s.Verify(body, ts, "md5=abcdef", now)
		assert.ErrorIs(t, err, ErrMalformedSignature)
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		_, sig := s.Sign(body, now)
		err := s.Verify(body, "not-a-number", sig, now)
		assert.ErrorIs(t, err, ErrStaleTimestamp)
	})
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   string
		allowHosts []string
		wantErr    bool
	}{
		{name: "public https endpoint", endpoint: "https://hooks.example.com/ranking"},
		{name: "public http endpoint", endpoint: "http://hooks.example.com/ranking"},
		{name: "allowlisted internal host", endpoint: "http://notifier.svc.cluster.local/hook", allowHosts: []string{"notifier.svc.cluster.local"}},
		{name: "internal host not allowlisted", endpoint: "http://notifier.svc.cluster.local/hook", wantErr: true},
		{name: "localhost rejected", endpoint: "http://localhost:8080/hook", wantErr: true},
		{name: "bad scheme", endpoint: "ftp://example.com/hook", wantErr: true},
		{name: "missing host", endpoint: "https:///hook", wantErr: true},
		{name: "not a url", endpoint: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint, tt.allowHosts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
