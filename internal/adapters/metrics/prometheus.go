package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	OptimizationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_optimization_runs_total",
		Help: "Total optimization runs by final status",
	}, []string{"status"})

	OptimizationIterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptforge_optimization_iterations_total",
		Help: "Total optimization loop iterations executed",
	})

	OptimizationBestScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptforge_optimization_best_score",
		Help:    "Best match score per completed run",
		Buckets: []float64{0.1, 0.25, 0.5, 0.7, 0.85, 0.95, 1},
	})

	GenerationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_generation_requests_total",
		Help: "Total generation requests",
	}, []string{"model", "status"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_generation_duration_seconds",
		Help:    "Generation request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"model"})

	EmbeddingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_embedding_requests_total",
		Help: "Total embedding requests",
	}, []string{"status"})

	ChunksIndexedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptforge_chunks_indexed_total",
		Help: "Total chunks added to the index",
	})

	RetrievalRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_retrieval_requests_total",
		Help: "Total retrieval searches",
	}, []string{"status"})
)
