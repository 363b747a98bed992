// Package metrics emits standardised work-item lifecycle metrics.
package metrics

import (
	"time"

	"github.com/openpostbud/postbud/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// WorkItemMetric captures details about one work-item status transition.
type WorkItemMetric struct {
	Queue      string // "registration_task" or "letter"
	Transition string // terminal status reached: "checked", "sent", "failed"
	Result     string
	Duration   time.Duration
}

// EmitWorkItem emits lifecycle metrics for one processed work item.
func EmitWorkItem(sink statsd.Sink, in WorkItemMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"queue":      in.Queue,
		"transition": in.Transition,
		"result":     in.Result,
	}

	sink.Count("workitem.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("workitem.duration", in.Duration, CloneTags(tags))
	}
}

// EmitRequeued reports items moved back to waiting by the reaper.
func EmitRequeued(sink statsd.Sink, queue string, count int64) {
	if sink == nil || count == 0 {
		return
	}
	sink.Count("workitem.requeued", count, map[string]string{"queue": queue})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
