package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model-provider and ingestion pipeline metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliwire",
			Name:      "provider_requests_total",
			Help:      "Total number of embedding and generation requests",
		},
		[]string{"kind", "model", "status"}, // kind: "embedding" / "generation"
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compliwire",
			Name:      "provider_request_duration_seconds",
			Help:      "Embedding and generation request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliwire",
			Name:      "provider_tokens_total",
			Help:      "Total provider tokens consumed",
		},
		[]string{"kind", "model", "type"},
	)

	IngestEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliwire",
			Name:      "ingest_entries_total",
			Help:      "Feed entries processed by outcome",
		},
		[]string{"outcome"}, // "ingested" / "skipped" / "failed"
	)

	IngestFeedErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliwire",
			Name:      "ingest_feed_errors_total",
			Help:      "Feeds that failed to fetch or parse",
		},
		[]string{"feed"},
	)

	IngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compliwire",
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by outcome",
		},
		[]string{"outcome"}, // "completed" / "skipped"
	)

	RetrievalFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "compliwire",
			Name:      "retrieval_fallbacks_total",
			Help:      "Hybrid queries degraded to the vector-only fallback",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderTokensTotal)
	prometheus.MustRegister(IngestEntriesTotal)
	prometheus.MustRegister(IngestFeedErrorsTotal)
	prometheus.MustRegister(IngestRunsTotal)
	prometheus.MustRegister(RetrievalFallbacksTotal)
	pipelineMetricsRegistered = true
}
