package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gradlift/ranking-go/internal/observability/notify"
)

func TestService_NotifyJobFailure(t *testing.T) {
	t.Run("fans out to all sinks", func(t *testing.T) {
		var mu sync.Mutex
		var delivered []string

		record := func(name string) notify.SinkFunc {
			return func(ctx context.Context, payload notify.JobFailurePayload) error {
				mu.Lock()
				defer mu.Unlock()
				delivered = append(delivered, name)
				return nil
			}
		}

		svc := NewService(Options{Sinks: []SinkRegistration{
			{Name: "slack", Sink: record("slack")},
			{Name: "pagerduty", Sink: record("pagerduty")},
		}})

		svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{JobID: "job-1"})
		assert.ElementsMatch(t, []string{"slack", "pagerduty"}, delivered)
	})

	t.Run("defaults severity to critical", func(t *testing.T) {
		var got notify.JobFailurePayload
		svc := NewService(Options{Sinks: []SinkRegistration{{
			Name: "capture",
			Sink: notify.SinkFunc(func(ctx context.Context, payload notify.JobFailurePayload) error {
				got = payload
				return nil
			}),
		}}})

		svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{JobID: "job-1"})
		assert.Equal(t, notify.SeverityCritical, got.Severity)
	})

	t.Run("one failing sink does not block the rest", func(t *testing.T) {
		var delivered bool
		svc := NewService(Options{Sinks: []SinkRegistration{
			{Name: "broken", Sink: notify.SinkFunc(func(ctx context.Context, payload notify.JobFailurePayload) error {
				return errors.New("boom")
			})},
			{Name: "working", Sink: notify.SinkFunc(func(ctx context.Context, payload notify.JobFailurePayload) error {
				delivered = true
				return nil
			})},
		}})

		svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{JobID: "job-1"})
		assert.True(t, delivered)
	})

	t.Run("nil sinks are skipped", func(t *testing.T) {
		svc := NewService(Options{Sinks: []SinkRegistration{{Name: "nil", Sink: nil}}})
		assert.False(t, svc.Enabled())
	})
}
