package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journey_rag_query_duration_seconds",
			Help:    "Query processing duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_rag_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"method", "status"},
	)

	IntentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_rag_intent_total",
			Help: "Queries routed per intent",
		},
		[]string{"intent"},
	)

	CohortSessions = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "journey_rag_cohort_sessions",
			Help:    "Sessions matched per retrieval cohort",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 20000},
		},
	)

	InsufficientData = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "journey_rag_insufficient_data_total",
			Help: "Retrievals where the selected cohort matched no sessions",
		},
	)

	SynthesisFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "journey_rag_synthesis_failures_total",
			Help: "LLM synthesis failures where statistics were still returned",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_rag_cache_hits_total",
			Help: "Total answer cache hits",
		},
		[]string{"method"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_rag_cache_misses_total",
			Help: "Total answer cache misses",
		},
		[]string{"method"},
	)

	GraphNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "journey_rag_graph_nodes",
			Help: "Journey graph node counts by type",
		},
		[]string{"type"},
	)

	GraphEdges = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "journey_rag_graph_edges",
			Help: "Journey graph edge counts by type",
		},
		[]string{"type"},
	)

	BaselineDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "journey_rag_baseline_documents",
			Help: "Documents in the naive baseline index",
		},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(IntentTotal)
	prometheus.MustRegister(CohortSessions)
	prometheus.MustRegister(InsufficientData)
	prometheus.MustRegister(SynthesisFailures)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(GraphNodes)
	prometheus.MustRegister(GraphEdges)
	prometheus.MustRegister(BaselineDocuments)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
