package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PollerJobMetrics records metadata for scheduled poller jobs.
type PollerJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewPollerJobMetrics registers the poller job metrics on the provided registerer.
func NewPollerJobMetrics(reg prometheus.Registerer) *PollerJobMetrics {
	if reg == nil {
		return &PollerJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poller_job_duration_seconds",
		Help:    "Duration of poller jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_job_success",
		Help: "Successful poller job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_job_failure",
		Help: "Failed poller job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &PollerJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (p *PollerJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (p *PollerJobMetrics) IncSuccess(job string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (p *PollerJobMetrics) IncFailure(job string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
