package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProcessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkingspace_process_total",
			Help: "Workflow entry point outcomes by process, status and error tag",
		},
		[]string{"process", "status", "error"},
	)

	ProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parkingspace_process_duration_seconds",
			Help:    "Duration of workflow entry points in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"process"},
	)

	SiblingDenialsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parkingspace_sibling_denials_failed_total",
			Help: "Sibling offers that could not be denied after an accept",
		},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkingspace_notifications_failed_total",
			Help: "Best-effort notifications that failed, by kind",
		},
		[]string{"kind"},
	)

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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)
)
