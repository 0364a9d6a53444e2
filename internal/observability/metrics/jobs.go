package metrics

import (
	"time"

	obserrors "github.com/gradlift/ranking-go/internal/observability/errors"
	"github.com/gradlift/ranking-go/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Stage constants for metric tagging.
const (
	StageEnqueue = "enqueue"
	StageScoring = "scoring"
	StageWebhook = "webhook"
	StageCron    = "cron"
	StageReaper  = "reaper"
)

// JobMetric captures details about a scoring job lifecycle event for metric emission.
type JobMetric struct {
	Stage         string
	Transition    string
	Result        string
	ConfigVersion string
	Duration      time.Duration
	Err           error
}

// EmitJobLifecycle emits standardised job lifecycle metrics.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":      in.Stage,
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.ConfigVersion != "" {
		tags["config_version"] = in.ConfigVersion
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// EmitQueueDepth reports the pending and processing queue depths.
func EmitQueueDepth(sink statsd.Sink, pending, processing int64) {
	if sink == nil {
		return
	}
	sink.Gauge("queue.depth", float64(pending), map[string]string{"list": "pending"})
	sink.Gauge("queue.depth", float64(processing), map[string]string{"list": "processing"})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
