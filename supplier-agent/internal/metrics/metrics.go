package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks A2A requests handled, by method and result.
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_rpc_requests_total",
			Help: "Total number of A2A JSON-RPC requests handled (by method and result).",
		},
		[]string{"method", "result"}, // result = "ok" | "error"
	)

	// Measures quote assembly latency.
	QuoteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "supplier_quote_duration_seconds",
			Help:    "Time spent pricing an RFQ into a quote.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Counts BOM lines priced from the fallback entry.
	FallbackLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supplier_fallback_lines_total",
			Help: "Number of quoted lines priced at fallback defaults (part not in catalog).",
		},
	)
)

func IncRPC(method, result string) {
	RPCRequestsTotal.WithLabelValues(method, result).Inc()
}
