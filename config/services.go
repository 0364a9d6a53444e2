package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the scoring worker pool.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeCron runs the rescore scheduler and ranking maintenance.
	ServiceModeCron ServiceMode = "cron"
	// ServiceModeReaper runs the cleanup loop for stale jobs and old rows.
	ServiceModeReaper ServiceMode = "reaper"
	// ServiceModeNotifier runs the webhook delivery loop.
	ServiceModeNotifier ServiceMode = "notifier"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeWorker,
		ServiceModeCron,
		ServiceModeReaper,
		ServiceModeNotifier,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP,
			ServiceModeWorker,
			ServiceModeCron,
			ServiceModeReaper,
			ServiceModeNotifier:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, worker, cron, reaper, notifier)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains scoring worker pool configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"4"`

	// DequeueTimeout bounds each blocking dequeue so workers notice shutdown.
	DequeueTimeout time.Duration `env:"WORKER_DEQUEUE_TIMEOUT" envDefault:"5s"`

	// DefaultMaxAttempts is the retry budget for jobs enqueued without one.
	DefaultMaxAttempts int `env:"WORKER_DEFAULT_MAX_ATTEMPTS" envDefault:"3"`

	// UnavailableBackoff is the initial backoff when the queue is unreachable.
	// Backoff doubles on each consecutive failure up to UnavailableBackoffMax.
	UnavailableBackoff    time.Duration `env:"WORKER_UNAVAILABLE_BACKOFF"     envDefault:"1s"`
	UnavailableBackoffMax time.Duration `env:"WORKER_UNAVAILABLE_BACKOFF_MAX" envDefault:"30s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.DequeueTimeout < time.Second {
		w.DequeueTimeout = time.Second
	}
	if w.DefaultMaxAttempts < 1 {
		w.DefaultMaxAttempts = 1
	}
	if w.UnavailableBackoff <= 0 {
		w.UnavailableBackoff = time.Second
	}
	if w.UnavailableBackoffMax < w.UnavailableBackoff {
		w.UnavailableBackoffMax = w.UnavailableBackoff
	}
}

// CronConfig contains rescore scheduler and ranking maintenance configuration.
type CronConfig struct {
	// Interval is the scheduler tick interval.
	Interval time.Duration `env:"CRON_INTERVAL" envDefault:"30s"`

	// BatchSize is the number of due rescore policies to enqueue per tick.
	BatchSize int `env:"CRON_BATCH_SIZE" envDefault:"25"`

	// DebounceTTL suppresses repeat enqueues for an item within the window.
	DebounceTTL time.Duration `env:"CRON_DEBOUNCE_TTL" envDefault:"1m"`

	// MaintenanceInterval is how often rank recompute, global stats and
	// histogram refresh run.
	MaintenanceInterval time.Duration `env:"CRON_MAINTENANCE_INTERVAL" envDefault:"5m"`

	// HistogramBucketWidth is the score width of each histogram bucket.
	HistogramBucketWidth float64 `env:"CRON_HISTOGRAM_BUCKET_WIDTH" envDefault:"5"`
}

// Sanitize applies guardrails to cron configuration values.
func (c *CronConfig) Sanitize() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.BatchSize < 1 {
		c.BatchSize = 1
	}
	if c.DebounceTTL < 0 {
		c.DebounceTTL = 0
	}
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = 5 * time.Minute
	}
	if c.HistogramBucketWidth <= 0 {
		c.HistogramBucketWidth = 5
	}
}

// ReaperConfig contains cleanup loop configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"1m"`

	// StaleAfter is how long an in_progress job may sit without finishing
	// before it is reset to pending.
	StaleAfter time.Duration `env:"REAPER_STALE_AFTER" envDefault:"10m"`

	// CompletedMaxAge is the maximum age for terminal jobs before deletion.
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// DeliveryMaxAge is the maximum age for finished webhook deliveries before deletion.
	DeliveryMaxAge time.Duration `env:"REAPER_DELIVERY_MAX_AGE" envDefault:"720h"` // 30 days

	// AuditRetainDays is how many days of ranking audit rows to keep.
	AuditRetainDays int `env:"REAPER_AUDIT_RETAIN_DAYS" envDefault:"90"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < 10*time.Second {
		r.Interval = 10 * time.Second
	}
	if r.StaleAfter < time.Minute {
		r.StaleAfter = time.Minute
	}
	if r.CompletedMaxAge < time.Hour {
		r.CompletedMaxAge = time.Hour
	}
	if r.DeliveryMaxAge < time.Hour {
		r.DeliveryMaxAge = time.Hour
	}
	if r.AuditRetainDays < 1 {
		r.AuditRetainDays = 1
	}
}

// WebhookConfig contains outbound completion notification configuration.
type WebhookConfig struct {
	// Enabled controls whether completion webhooks are sent at all.
	Enabled bool `env:"WEBHOOK_ENABLED" envDefault:"false"`

	// Endpoint is the receiver URL for completion notifications.
	Endpoint string `env:"WEBHOOK_ENDPOINT"`

	// Secret signs outbound payloads and verifies inbound score events.
	Secret string `env:"WEBHOOK_SECRET"`

	// AllowedHosts lists receiver hosts without a public DNS name, such as
	// in-cluster service names, that endpoint validation should accept.
	AllowedHosts []string `env:"WEBHOOK_ALLOWED_HOSTS"`

	// MaxAttempts bounds delivery retries per notification.
	MaxAttempts int `env:"WEBHOOK_MAX_ATTEMPTS" envDefault:"5"`

	// BaseDelay is the initial retry delay; it doubles per attempt with
	// jitter up to MaxDelay.
	BaseDelay time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`
	MaxDelay  time.Duration `env:"WEBHOOK_MAX_DELAY"  envDefault:"1m"`

	// Timeout bounds each delivery HTTP request.
	Timeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`

	// SkewTolerance is the accepted clock skew when verifying signed
	// inbound requests.
	SkewTolerance time.Duration `env:"WEBHOOK_SKEW_TOLERANCE" envDefault:"5m"`

	// SweepInterval is how often the notifier sweeps pending deliveries
	// left behind by a crash.
	SweepInterval time.Duration `env:"WEBHOOK_SWEEP_INTERVAL" envDefault:"30s"`

	// SweepBatchSize bounds the deliveries examined per sweep.
	SweepBatchSize int `env:"WEBHOOK_SWEEP_BATCH_SIZE" envDefault:"50"`
}

// Sanitize applies guardrails to webhook configuration values.
func (w *WebhookConfig) Sanitize() {
	w.Endpoint = strings.TrimSpace(w.Endpoint)
	if w.Enabled && (w.Endpoint == "" || w.Secret == "") {
		w.Enabled = false
	}
	if w.MaxAttempts < 1 {
		w.MaxAttempts = 1
	}
	if w.BaseDelay <= 0 {
		w.BaseDelay = time.Second
	}
	if w.MaxDelay < w.BaseDelay {
		w.MaxDelay = w.BaseDelay
	}
	if w.Timeout <= 0 {
		w.Timeout = 10 * time.Second
	}
	if w.SweepInterval <= 0 {
		w.SweepInterval = 30 * time.Second
	}
	if w.SweepBatchSize < 1 {
		w.SweepBatchSize = 50
	}
	if w.SkewTolerance <= 0 {
		w.SkewTolerance = 5 * time.Minute
	}
}

// ScoringConfig contains scoring configuration resolution settings.
type ScoringConfig struct {
	// ActiveVersion selects the configuration pinned onto new jobs.
	ActiveVersion string `env:"SCORING_ACTIVE_VERSION" envDefault:"v2"`

	// CalibrationPath optionally points at a JSON file of extra scoring
	// configuration versions layered over the built-ins.
	CalibrationPath string `env:"SCORING_CALIBRATION_PATH"`
}

// QueueConfig contains Redis job queue settings.
type QueueConfig struct {
	// KeyPrefix namespaces all queue keys.
	KeyPrefix string `env:"QUEUE_KEY_PREFIX" envDefault:"ranking"`

	// VisibilityTimeout is how long a dequeued job may stay unacked before
	// the reaper requeues it.
	VisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT" envDefault:"60s"`
}

// Sanitize applies guardrails to queue configuration values.
func (q *QueueConfig) Sanitize() {
	if strings.TrimSpace(q.KeyPrefix) == "" {
		q.KeyPrefix = "ranking"
	}
	if q.VisibilityTimeout < 5*time.Second {
		q.VisibilityTimeout = 5 * time.Second
	}
}
