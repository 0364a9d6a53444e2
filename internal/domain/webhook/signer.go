// Package webhook implements signing and verification for completion
// notifications. The signature covers "{timestamp}.{body}" with HMAC-SHA256
// so receivers can verify both authenticity and freshness.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header names carried on signed requests.
const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

const signaturePrefix = "sha256="

// Verification failure reasons.
var (
	ErrMissingTimestamp   = errors.New("missing timestamp header")
	ErrMissingSignature   = errors.New("missing signature header")
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrStaleTimestamp     = errors.New("timestamp outside allowed skew")
	ErrSignatureMismatch  = errors.New("signature mismatch")
)

// Signer signs and verifies webhook payloads with a shared secret.
type Signer struct {
	secret  []byte
	maxSkew time.Duration
}

// NewSigner creates a Signer. maxSkew bounds how far a request timestamp may
// drift from the verifier's clock in either direction.
func NewSigner(secret string, maxSkew time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	if maxSkew <= 0 {
		return nil, errors.New("max skew must be positive")
	}
	return &Signer{secret: []byte(secret), maxSkew: maxSkew}, nil
}

// Sign computes the signature for body at the given time. It returns the
// timestamp and signature header values to attach to the outgoing request.
func (s *Signer) Sign(body []byte, at time.Time) (timestamp, signature string) {
	ts := strconv.FormatInt(at.Unix(), 10)
	return ts, signaturePrefix + s.digest(ts, body)
}

// Verify checks an inbound timestamp/signature pair against body. The
// comparison is constant-time and the timestamp must fall within the
// configured skew of now.
func (s *Signer) Verify(body []byte, timestamp, signature string, now time.Time) error {
	if timestamp == "" {
		return ErrMissingTimestamp
	}
	if signature == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStaleTimestamp, err)
	}
	drift := now.Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if time.Duration(drift)*time.Second > s.maxSkew {
		return ErrStaleTimestamp
	}

	provided, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return ErrMalformedSignature
	}
	expected := s.digest(strings.TrimSpace(timestamp), body)
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return ErrSignatureMismatch
	}
	return nil
}

// digest computes hex(HMAC-SHA256(secret, "{timestamp}.{body}")).
func (s *Signer) digest(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
