// Package metrics provides Prometheus metrics for the external capabilities
// (ffmpeg, speech recognition, text generation) used by the pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Capability call metrics
var (
	// capabilityCallsTotal records the total number of external capability calls.
	// Labels:
	//   - capability: Capability name (e.g., "ffmpeg", "whisper", "llm")
	//   - status: Call status ("success", "failed", "timeout")
	capabilityCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioscribe_capability_calls_total",
			Help: "Total number of external capability calls",
		},
		[]string{"capability", "status"},
	)

	// capabilityCallDuration records the duration of external capability calls.
	// Buckets: 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s, 300s (5 minutes)
	capabilityCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audioscribe_capability_call_duration_seconds",
			Help:    "Duration of external capability calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"capability"},
	)

	// capabilityRetriesTotal records retries issued by capability adapters.
	capabilityRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioscribe_capability_retries_total",
			Help: "Total number of retried external capability calls",
		},
		[]string{"capability"},
	)
)

func init() {
	prometheus.MustRegister(capabilityCallsTotal)
	prometheus.MustRegister(capabilityCallDuration)
	prometheus.MustRegister(capabilityRetriesTotal)
}

// RecordCapabilityCall records a finished capability call.
func RecordCapabilityCall(capability, status string) {
	capabilityCallsTotal.WithLabelValues(capability, status).Inc()
}

// RecordCapabilityDuration records the duration of a capability call in seconds.
func RecordCapabilityDuration(capability string, durationSeconds float64) {
	capabilityCallDuration.WithLabelValues(capability).Observe(durationSeconds)
}

// RecordCapabilityRetry records one retry attempt.
func RecordCapabilityRetry(capability string) {
	capabilityRetriesTotal.WithLabelValues(capability).Inc()
}

// CallStatus categorizes a call result as "success", "timeout", or "failed".
func CallStatus(err error, timedOut bool) string {
	switch {
	case err == nil:
		return "success"
	case timedOut:
		return "timeout"
	default:
		return "failed"
	}
}
