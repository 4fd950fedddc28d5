// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminder messages accepted by the gateway",
		},
		[]string{"level"},
	)

	RemindersFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Total number of reminder sends that failed",
		},
		[]string{"level", "error_code"},
	)

	BatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_batch_runs_total",
			Help: "Total number of batch dispatch runs by outcome",
		},
		[]string{"outcome"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_batch_duration_seconds",
			Help:    "Wall-clock duration of batch dispatch runs in seconds",
			Buckets: prometheus.ExponentialBuckets(60, 2, 10),
		},
	)

	BatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminder_batch_in_flight",
			Help: "Whether a batch dispatch run is currently active",
		},
	)

	CandidatesScanned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminder_candidates_last_scan",
			Help: "Number of due candidates found by the most recent scan",
		},
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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
