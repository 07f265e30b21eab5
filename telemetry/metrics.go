package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BridgeMetrics records Prometheus metrics for foreign calls crossing the
// Lua bridge.
//
// Metrics exposed (namespaced with "meschooldata"):
//
//   - bridge_calls_total (counter): foreign calls by entry point and status
//     (success/error).
//   - bridge_call_duration_seconds (histogram): foreign call duration by
//     entry point.
//
// The collector is optional; a nil *BridgeMetrics is a valid no-op. Exposing
// the registry over HTTP is left to the embedding application.
type BridgeMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewBridgeMetrics creates and registers the bridge metrics with the provided
// registry. A nil registry falls back to prometheus.DefaultRegisterer.
func NewBridgeMetrics(registry prometheus.Registerer) *BridgeMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &BridgeMetrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meschooldata",
			Name:      "bridge_calls_total",
			Help:      "Foreign calls made to the external package, by entry point and status",
		}, []string{"entry_point", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "meschooldata",
			Name:      "bridge_call_duration_seconds",
			Help:      "Foreign call duration in seconds, by entry point",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entry_point"}),
	}
}

// ObserveCall records a single foreign call. Safe on a nil receiver.
func (m *BridgeMetrics) ObserveCall(entryPoint string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.calls.WithLabelValues(entryPoint, status).Inc()
	m.duration.WithLabelValues(entryPoint).Observe(elapsed.Seconds())
}
