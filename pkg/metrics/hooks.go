package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HookMetrics records webhook dispatch outcomes per strategy.
type HookMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewHookMetrics registers the webhook metrics on the provided registerer.
func NewHookMetrics(reg prometheus.Registerer) *HookMetrics {
	if reg == nil {
		return &HookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hook_dispatch_duration_seconds",
		Help:    "Duration of webhook dispatch attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hook_dispatch_outcomes",
		Help: "Webhook dispatch attempts by strategy and outcome.",
	}, []string{"strategy", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &HookMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records the duration of a dispatch attempt.
func (h *HookMetrics) ObserveDuration(strategy string, duration time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(normalizeLabel(strategy)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for the given strategy/outcome pair.
func (h *HookMetrics) IncOutcome(strategy, outcome string) {
	if h == nil || h.outcomes == nil {
		return
	}
	h.outcomes.WithLabelValues(normalizeLabel(strategy), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
