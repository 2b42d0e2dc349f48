package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks completed RFQ submissions by terminal outcome.
	RFQOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyer_rfq_outcomes_total",
			Help: "Total number of RFQ submissions completed, by outcome.",
		},
		[]string{"outcome"},
	)

	// Counts individual supplier call attempts, including retries.
	SupplierAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buyer_supplier_attempts_total",
			Help: "Total number of supplier A2A call attempts, retries included.",
		},
	)

	// Measures supplier round-trip latency per attempt.
	SupplierRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "buyer_supplier_request_duration_seconds",
			Help:    "Supplier A2A request round-trip time per attempt.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Counts internal errors by stage (store, publish, secrets).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyer_errors_total",
			Help: "Total number of internal errors, by stage.",
		},
		[]string{"stage"},
	)
)

func IncOutcome(outcome string) {
	RFQOutcomesTotal.WithLabelValues(outcome).Inc()
}

func IncError(stage string) {
	ErrorsTotal.WithLabelValues(stage).Inc()
}
