// Package observability provides logging, metrics, and tracing.
//
// It integrates with OpenTelemetry for distributed tracing and exposes
// Prometheus metrics for the queue's offer/pull/ack/complete lifecycle.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OperationsOfferedTotal counts operations admitted to a queue by name and task type.
	OperationsOfferedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lro_operations_offered_total",
			Help: "Total number of operations offered to a queue",
		},
		[]string{"queue", "task_type"},
	)
	// OperationsPulledTotal counts successful pulls by queue and task type.
	OperationsPulledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lro_operations_pulled_total",
			Help: "Total number of operations pulled from a queue",
		},
		[]string{"queue", "task_type"},
	)
	// OperationsAckedTotal counts acks by queue.
	OperationsAckedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lro_operations_acked_total",
			Help: "Total number of operations acked",
		},
		[]string{"queue"},
	)
	// OperationsCompletedTotal counts terminal completions by queue and outcome.
	OperationsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lro_operations_completed_total",
			Help: "Total number of operations completed",
		},
		[]string{"queue", "outcome"}, // outcome: "ok" | "error"
	)
	// OperationsRateLimitedTotal counts producer-side admissions denied before reaching the store.
	OperationsRateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lro_operations_rate_limited_total",
			Help: "Total number of enqueue attempts denied by the producer rate limiter",
		},
		[]string{"queue"},
	)
	// OperationLatencySeconds records the time between publish and terminal completion.
	OperationLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lro_operation_latency_seconds",
			Help:    "Time from offer to terminal completion",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		},
		[]string{"queue"},
	)
	// InflightDepth is a gauge of the observed in-flight (acked-list) depth, sampled by the inspector sweep.
	InflightDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lro_inflight_depth",
			Help: "Observed depth of a queue's in-flight list",
		},
		[]string{"queue"},
	)
)

// InitMetrics registers all Prometheus metrics with the default registry.
func InitMetrics() {
	prometheus.MustRegister(OperationsOfferedTotal)
	prometheus.MustRegister(OperationsPulledTotal)
	prometheus.MustRegister(OperationsAckedTotal)
	prometheus.MustRegister(OperationsCompletedTotal)
	prometheus.MustRegister(OperationsRateLimitedTotal)
	prometheus.MustRegister(OperationLatencySeconds)
	prometheus.MustRegister(InflightDepth)
}

// RecordOffer increments the offered counter for queue/taskType.
func RecordOffer(queue, taskType string) {
	OperationsOfferedTotal.WithLabelValues(queue, taskType).Inc()
}

// RecordPull increments the pulled counter for queue/taskType.
func RecordPull(queue, taskType string) {
	OperationsPulledTotal.WithLabelValues(queue, taskType).Inc()
}

// RecordAck increments the acked counter for queue.
func RecordAck(queue string) {
	OperationsAckedTotal.WithLabelValues(queue).Inc()
}

// RecordComplete increments the completed counter and observes latency for queue.
func RecordComplete(queue, outcome string, latencySeconds float64) {
	OperationsCompletedTotal.WithLabelValues(queue, outcome).Inc()
	if latencySeconds >= 0 {
		OperationLatencySeconds.WithLabelValues(queue).Observe(latencySeconds)
	}
}

// RecordRateLimited increments the rate-limited counter for queue.
func RecordRateLimited(queue string) {
	OperationsRateLimitedTotal.WithLabelValues(queue).Inc()
}

// SetInflightDepth sets the observed in-flight depth gauge for queue.
func SetInflightDepth(queue string, depth int64) {
	InflightDepth.WithLabelValues(queue).Set(float64(depth))
}
