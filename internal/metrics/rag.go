package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and retrieval Prometheus metrics.
var (
	IngestedChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docrag",
			Name:      "ingested_chunks_total",
			Help:      "Total number of chunks written to the vector store",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docrag",
			Name:      "ingest_duration_seconds",
			Help:      "Document ingestion duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	IngestFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrag",
			Name:      "ingest_failures_total",
			Help:      "Total ingestion failures",
		},
		[]string{"reason"},
	)

	RetrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrag",
			Name:      "retrievals_total",
			Help:      "Total retrieval requests",
		},
		[]string{"status"}, // "success" / "not_found" / "error"
	)
)

var ragMetricsRegistered bool

// RegisterRAGMetrics registers ingestion and retrieval metrics. Must be called once from main.
func RegisterRAGMetrics() {
	if ragMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestedChunksTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(IngestFailuresTotal)
	prometheus.MustRegister(RetrievalsTotal)
	ragMetricsRegistered = true
}
