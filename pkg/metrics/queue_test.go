package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestQueueMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewQueueMetrics(reg)
	metrics.ObserveDuration("activity", "record", 50*time.Millisecond)
	metrics.IncProcessed("activity", "record")
	metrics.IncSkipped("notifications", "create")
	metrics.IncRetried("activity", "record")
	metrics.IncFailed("activity", "record")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for _, name := range []string{"queue_job_processed", "queue_job_retried", "queue_job_failed"} {
		if got, err := fetchCounterValue(mfs, name, "job", "record"); err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", name, got)
		}
	}

	if got, err := fetchCounterValue(mfs, "queue_job_skipped", "queue", "notifications"); err != nil {
		t.Fatalf("fetch skipped: %v", err)
	} else if got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "queue_job_duration_seconds", "queue", "activity"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestQueueMetricsNilSafe(t *testing.T) {
	var metrics *QueueMetrics
	metrics.IncProcessed("activity", "record")
	metrics.ObserveDuration("activity", "record", time.Second)

	unregistered := NewQueueMetrics(nil)
	unregistered.IncFailed("activity", "record")
}
