package httpx

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gradlift/ranking-go/internal/domain/webhook"
)

// maxSignedBodyBytes bounds the body read for signature verification.
const maxSignedBodyBytes = 1 << 20

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// VerifySignature returns a middleware that authenticates requests with the
// timestamped HMAC scheme shared with outbound webhooks. The body is read
// once for verification and replaced so handlers can decode it normally.
func VerifySignature(signer *webhook.Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBodyBytes+1))
			if err != nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusBadRequest,
					ErrCode: "unreadable_body",
					Err:     err,
				})
				return
			}
			if len(body) > maxSignedBodyBytes {
				WriteError(w, ErrorParams{
					Code:    http.StatusRequestEntityTooLarge,
					ErrCode: "body_too_large",
					Err:     errors.New("request body exceeds signed payload limit"),
				})
				return
			}

			if err := signer.Verify(body,
				r.Header.Get(webhook.HeaderTimestamp),
				r.Header.Get(webhook.HeaderSignature),
				time.Now(),
			); err != nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "invalid_signature",
					Err:     err,
				})
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
