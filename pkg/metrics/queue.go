package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics records throughput and retry behavior for background queues.
type QueueMetrics struct {
	duration  *prometheus.HistogramVec
	processed *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	retried   *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewQueueMetrics registers the queue metrics on the provided registerer.
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	if reg == nil {
		return &QueueMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "queue_job_duration_seconds",
		Help:    "Duration of queue job handlers in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue", "job"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_job_processed",
		Help: "Queue jobs completed successfully.",
	}, []string{"queue", "job"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_job_skipped",
		Help: "Queue jobs intentionally skipped by their handler.",
	}, []string{"queue", "job"})
	retried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_job_retried",
		Help: "Queue jobs rescheduled after a handler error.",
	}, []string{"queue", "job"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_job_failed",
		Help: "Queue jobs that exhausted their retry budget.",
	}, []string{"queue", "job"})
	reg.MustRegister(duration, processed, skipped, retried, failed)
	return &QueueMetrics{
		duration:  duration,
		processed: processed,
		skipped:   skipped,
		retried:   retried,
		failed:    failed,
	}
}

// ObserveDuration records how long a handler ran for the named job.
func (q *QueueMetrics) ObserveDuration(queue, job string, duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.WithLabelValues(normalizeLabel(queue), normalizeLabel(job)).Observe(duration.Seconds())
}

// IncProcessed increments the processed counter for the named job.
func (q *QueueMetrics) IncProcessed(queue, job string) {
	if q == nil || q.processed == nil {
		return
	}
	q.processed.WithLabelValues(normalizeLabel(queue), normalizeLabel(job)).Inc()
}

// IncSkipped increments the skipped counter for the named job.
func (q *QueueMetrics) IncSkipped(queue, job string) {
	if q == nil || q.skipped == nil {
		return
	}
	q.skipped.WithLabelValues(normalizeLabel(queue), normalizeLabel(job)).Inc()
}

// IncRetried increments the retried counter for the named job.
func (q *QueueMetrics) IncRetried(queue, job string) {
	if q == nil || q.retried == nil {
		return
	}
	q.retried.WithLabelValues(normalizeLabel(queue), normalizeLabel(job)).Inc()
}

// IncFailed increments the failed counter for the named job.
func (q *QueueMetrics) IncFailed(queue, job string) {
	if q == nil || q.failed == nil {
		return
	}
	q.failed.WithLabelValues(normalizeLabel(queue), normalizeLabel(job)).Inc()
}
