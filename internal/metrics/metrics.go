package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqual_requests_total",
			Help: "Total number of requests per endpoint",
		},
		[]string{"endpoint"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solarqual_request_duration_seconds",
			Help:    "Request duration in seconds per endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqual_request_errors_total",
			Help: "Total number of error responses per endpoint and code",
		},
		[]string{"endpoint", "code"},
	)

	SourceAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqual_source_attempts_total",
			Help: "Electricity data source attempts per source",
		},
		[]string{"source"},
	)

	SourceHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqual_source_hits_total",
			Help: "Electricity data source successes per source",
		},
		[]string{"source"},
	)

	ChainExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solarqual_chain_exhausted_total",
			Help: "Number of requests for which every electricity source failed",
		},
	)

	QualificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqual_qualifications_total",
			Help: "Qualification verdicts per status",
		},
		[]string{"status"},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solarqual_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solarqual_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarqual_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
