// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	ContextBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_context_builds_total",
			Help: "Context builds by final status",
		},
		[]string{"status"},
	)

	ContextMonths = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_context_months",
			Help:    "Months loaded per context build",
			Buckets: []float64{1, 2, 3, 6, 12},
		},
	)

	ContextDocumentBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_context_document_bytes",
			Help:    "Size of the formatted context document",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
		},
	)

	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_source_fetch_total",
			Help: "Source retrievals by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_source_fetch_duration_seconds",
			Help: "Duration of a single source retrieval",
		},
		[]string{"backend"},
	)

	AggregationSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_sales_aggregation_skipped_total",
			Help: "Months skipped by sales aggregation for lack of a usable payload",
		},
	)
)
