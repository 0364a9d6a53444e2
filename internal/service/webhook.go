package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/core"
	"github.com/gradlift/ranking-go/internal/domain/model"
	"github.com/gradlift/ranking-go/internal/domain/webhook"
	apperrors "github.com/gradlift/ranking-go/internal/errors"
	obserrors "github.com/gradlift/ranking-go/internal/observability/errors"
	"github.com/gradlift/ranking-go/internal/observability/metrics"
	"github.com/gradlift/ranking-go/internal/observability/notify"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
	"github.com/gradlift/ranking-go/internal/service/failurenotifier"
)

const maxWebhookResponseBytes = 4 * 1024 // truncate receiver error bodies

// CompletionPayload is the webhook body sent when a scoring job commits.
type CompletionPayload struct {
	JobID          string    `json:"job_id"`
	ItemRef        string    `json:"item_ref"`
	Score          float64   `json:"score"`
	ConfigVersion  string    `json:"config_version"`
	IdempotencyKey string    `json:"idempotency_key"`
	ComputedAt     time.Time `json:"computed_at"`
}

// WebhookNotifierServiceOptions groups dependencies for WebhookNotifierService.
type WebhookNotifierServiceOptions struct {
	Deliveries      core.DeliveryRepository  // Required: delivery repository
	Results         core.ResultRepository    // Required: rebuilds payloads on redelivery
	Config          config.WebhookConfig     // Required: endpoint, secret and retry policy
	HTTPClient      *http.Client             // Optional: defaults to a client with Config.Timeout
	Logger          *slog.Logger             // Optional: structured logger
	Metrics         statsd.Sink              // Optional: metrics sink (StatsD-compatible)
	FailureNotifier *failurenotifier.Service // Optional: exhausted-delivery fan-out
}

// WebhookNotifierService delivers signed completion notifications.
//
// Delivery is a best-effort side channel off the job pipeline: a job is
// completed whether or not its webhook lands. Each notification is recorded
// as a delivery row before the first attempt; rows whose attempt failed or
// that a crash left pending are retried by the redelivery sweep with
// exponential backoff and jitter.
type WebhookNotifierService struct {
	deliveries      core.DeliveryRepository
	results         core.ResultRepository
	cfg             config.WebhookConfig
	signer          *webhook.Signer
	http            *http.Client
	logger          *slog.Logger
	metrics         statsd.Sink
	failureNotifier *failurenotifier.Service
	now             func() time.Time
}

// NewWebhookNotifierService constructs a new WebhookNotifierService.
func NewWebhookNotifierService(opts WebhookNotifierServiceOptions) (*WebhookNotifierService, error) {
	if opts.Deliveries == nil {
		return nil, errors.New("DeliveryRepository is required")
	}
	if opts.Results == nil {
		return nil, errors.New("ResultRepository is required")
	}
	if !opts.Config.Enabled {
		return nil, errors.New("webhook config must be enabled")
	}
	if err := webhook.ValidateEndpoint(opts.Config.Endpoint, opts.Config.AllowedHosts); err != nil {
		return nil, fmt.Errorf("validate webhook endpoint: %w", err)
	}

	signer, err := webhook.NewSigner(opts.Config.Secret, opts.Config.SkewTolerance)
	if err != nil {
		return nil, fmt.Errorf("create webhook signer: %w", err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Config.Timeout}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "webhook_notifier")
	}

	return &WebhookNotifierService{
		deliveries:      opts.Deliveries,
		results:         opts.Results,
		cfg:             opts.Config,
		signer:          signer,
		http:            hc,
		logger:          logger,
		metrics:         opts.Metrics,
		failureNotifier: opts.FailureNotifier,
		now:             time.Now,
	}, nil
}

// BuildPayload renders the canonical webhook body for a result.
func BuildPayload(result *model.ScoreResult) ([]byte, error) {
	payload := CompletionPayload{
		JobID:          result.JobID,
		ItemRef:        result.ItemRef,
		Score:          result.Score,
		ConfigVersion:  result.ConfigVersion,
		IdempotencyKey: result.IdempotencyKey,
		ComputedAt:     result.ComputedAt.UTC(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal completion payload: %w", err)
	}
	return body, nil
}

// NotifyCompletion records a delivery for the result and makes one inline
// attempt. A failed attempt leaves the row pending for the redelivery sweep,
// so a slow receiver cannot hold a worker past its queue lease. Returns an
// error only when bookkeeping fails or a single-attempt budget is spent;
// the caller treats either as non-fatal.
func (s *WebhookNotifierService) NotifyCompletion(ctx context.Context, result *model.ScoreResult) error {
	if result == nil {
		return errors.New("result is required")
	}

	body, err := BuildPayload(result)
	if err != nil {
		return err
	}

	checksum := sha256.Sum256(body)
	delivery := &model.WebhookDelivery{
		ID:               uuid.NewString(),
		JobID:            result.JobID,
		Endpoint:         s.cfg.Endpoint,
		PayloadSignature: hex.EncodeToString(checksum[:]),
		MaxAttempts:      s.cfg.MaxAttempts,
	}
	if err := s.deliveries.Create(ctx, delivery); err != nil {
		return fmt.Errorf("record webhook delivery: %w", err)
	}

	attemptErr := s.post(ctx, delivery.Endpoint, body)
	if recordErr := s.deliveries.RecordAttempt(ctx, delivery.ID, attemptErr); recordErr != nil {
		return fmt.Errorf("record delivery attempt: %w", recordErr)
	}

	if attemptErr == nil {
		s.emit(metrics.ResultSuccess, 1, nil)
		if s.logger != nil {
			s.logger.InfoContext(ctx, "webhook delivered",
				"delivery_id", delivery.ID,
				"job_id", delivery.JobID,
			)
		}
		return nil
	}

	s.emit(metrics.ResultError, 1, attemptErr)
	if s.cfg.MaxAttempts <= 1 {
		s.notifyExhausted(ctx, delivery, attemptErr)
		return fmt.Errorf("webhook delivery %s exhausted after 1 attempt: %w",
			delivery.ID, attemptErr)
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "webhook attempt failed, left for redelivery sweep",
			"delivery_id", delivery.ID,
			"job_id", delivery.JobID,
			"error", attemptErr,
		)
	}
	return nil
}

// ProcessRetryable sweeps pending deliveries left behind by a crash and
// attempts the ones whose backoff has elapsed. Each sweep makes a single
// attempt per row; RecordAttempt flips a row to exhausted when its budget
// is spent.
func (s *WebhookNotifierService) ProcessRetryable(ctx context.Context, limit int) (int, error) {
	pending, err := s.deliveries.ListRetryable(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list retryable deliveries: %w", err)
	}

	attempted := 0
	now := s.now()
	for i := range pending {
		d := &pending[i]
		if now.Before(d.UpdatedAt.Add(s.backoff(d.AttemptCount))) {
			continue
		}

		body, buildErr := s.rebuildPayload(ctx, d)
		if buildErr != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "cannot rebuild webhook payload",
					"delivery_id", d.ID, "error", buildErr)
			}
			if recordErr := s.deliveries.RecordAttempt(ctx, d.ID, buildErr); recordErr != nil {
				return attempted, fmt.Errorf("record delivery attempt: %w", recordErr)
			}
			continue
		}

		attempted++
		attemptErr := s.post(ctx, d.Endpoint, body)
		if recordErr := s.deliveries.RecordAttempt(ctx, d.ID, attemptErr); recordErr != nil {
			return attempted, fmt.Errorf("record delivery attempt: %w", recordErr)
		}
		if attemptErr == nil {
			s.emit(metrics.ResultSuccess, d.AttemptCount+1, nil)
			continue
		}
		s.emit(metrics.ResultError, d.AttemptCount+1, attemptErr)
		if d.AttemptCount+1 >= d.MaxAttempts {
			s.notifyExhausted(ctx, d, attemptErr)
		}
	}
	return attempted, nil
}

// rebuildPayload reconstructs the webhook body from the committed result and
// checks it against the checksum recorded at creation.
func (s *WebhookNotifierService) rebuildPayload(ctx context.Context, d *model.WebhookDelivery) ([]byte, error) {
	result, err := s.results.GetByJobID(ctx, d.JobID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("result for job %s no longer exists", d.JobID)
		}
		return nil, err
	}
	body, err := BuildPayload(result)
	if err != nil {
		return nil, err
	}
	checksum := sha256.Sum256(body)
	if hex.EncodeToString(checksum[:]) != d.PayloadSignature {
		return nil, fmt.Errorf("rebuilt payload does not match recorded checksum for delivery %s", d.ID)
	}
	return body, nil
}

func (s *WebhookNotifierService) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	ts, sig := s.signer.Sign(body, s.now())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.HeaderTimestamp, ts)
	req.Header.Set(webhook.HeaderSignature, sig)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxWebhookResponseBytes))
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))
	return fmt.Errorf("webhook endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
}

// backoff doubles BaseDelay per spent attempt, capped at MaxDelay, with up
// to 25% random jitter to spread concurrent retries.
func (s *WebhookNotifierService) backoff(attempts int) time.Duration {
	delay := s.cfg.BaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= s.cfg.MaxDelay {
			delay = s.cfg.MaxDelay
			break
		}
	}
	if delay > s.cfg.MaxDelay {
		delay = s.cfg.MaxDelay
	}
	return delay + jitter(delay/4)
}

func (s *WebhookNotifierService) notifyExhausted(ctx context.Context, d *model.WebhookDelivery, cause error) {
	if s.failureNotifier == nil {
		return
	}
	s.failureNotifier.NotifyJobFailure(ctx, notify.JobFailurePayload{
		JobID:      d.JobID,
		Stage:      notify.StageWebhook,
		Error:      cause.Error(),
		ErrorClass: obserrors.Classify(cause),
		Metadata: map[string]string{
			"delivery_id":  d.ID,
			"endpoint":     d.Endpoint,
			"max_attempts": fmt.Sprintf("%d", d.MaxAttempts),
		},
	})
}

func (s *WebhookNotifierService) emit(result string, attempt int, err error) {
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Stage:      metrics.StageWebhook,
		Transition: fmt.Sprintf("attempt_%d", attempt),
		Result:     result,
		Err:        err,
	})
}

// jitter returns a uniform random duration in [0, max).
func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	n := binary.BigEndian.Uint64(buf[:]) % uint64(max)
	return time.Duration(int64(n)) // #nosec G115 - bounded by max which is int64
}
