package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics carries the Prometheus instruments for the query pipeline.
type Metrics struct {
	QueriesTotal     *prometheus.CounterVec
	QueryDuration    *prometheus.HistogramVec
	RetrievalHits    prometheus.Histogram
	GenerationErrors *prometheus.CounterVec
}

// New registers the metric set on the given registerer. Pass
// prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliancegpt",
			Name:      "queries_total",
			Help:      "Answered queries by outcome.",
		}, []string{"outcome"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "compliancegpt",
			Name:      "query_duration_seconds",
			Help:      "End to end query latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		RetrievalHits: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "compliancegpt",
			Name:      "retrieval_hits",
			Help:      "Number of chunks returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		GenerationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliancegpt",
			Name:      "generation_errors_total",
			Help:      "LLM generation failures by provider.",
		}, []string{"provider"}),
	}
}
