package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

type fakeQueueTrimmer struct {
	trimmed map[string]int64
	err     error
	failKey string
}

func (f *fakeQueueTrimmer) TrimList(ctx context.Context, key string, keep int64) error {
	if f.err != nil && (f.failKey == "" || f.failKey == key) {
		return f.err
	}
	if f.trimmed == nil {
		f.trimmed = map[string]int64{}
	}
	f.trimmed[key] = keep
	return nil
}

func (f *fakeQueueTrimmer) ListLen(ctx context.Context, key string) (int64, error) {
	return f.trimmed[key], nil
}

func (f *fakeQueueTrimmer) QueueKey(queue, part string) string {
	return "gw:queue:" + queue + ":" + part
}

func TestQueueRetentionJobTrimsEveryArchive(t *testing.T) {
	trimmer := &fakeQueueTrimmer{}
	job, err := NewQueueRetentionJob(QueueRetentionJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Redis:     trimmer,
		Queues:    []string{"activity", "notifications"},
		Retention: 500,
	})
	if err != nil {
		t.Fatalf("NewQueueRetentionJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expected := []string{
		"gw:queue:activity:completed",
		"gw:queue:activity:failed",
		"gw:queue:notifications:completed",
		"gw:queue:notifications:failed",
	}
	if len(trimmer.trimmed) != len(expected) {
		t.Fatalf("expected %d trims, got %d", len(expected), len(trimmer.trimmed))
	}
	for _, key := range expected {
		if trimmer.trimmed[key] != 500 {
			t.Fatalf("expected %s trimmed to 500, got %d", key, trimmer.trimmed[key])
		}
	}
}

func TestQueueRetentionJobPropagatesErrors(t *testing.T) {
	job, err := NewQueueRetentionJob(QueueRetentionJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Redis:     &fakeQueueTrimmer{err: errors.New("redis down")},
		Queues:    []string{"activity"},
		Retention: 100,
	})
	if err != nil {
		t.Fatalf("NewQueueRetentionJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestQueueRetentionJobKeepsTrimmingAfterFailure(t *testing.T) {
	trimmer := &fakeQueueTrimmer{
		err:     errors.New("redis down"),
		failKey: "gw:queue:activity:completed",
	}
	job, err := NewQueueRetentionJob(QueueRetentionJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Redis:     trimmer,
		Queues:    []string{"activity", "notifications"},
		Retention: 100,
	})
	if err != nil {
		t.Fatalf("NewQueueRetentionJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{
		"gw:queue:activity:failed",
		"gw:queue:notifications:completed",
		"gw:queue:notifications:failed",
	} {
		if trimmer.trimmed[key] != 100 {
			t.Fatalf("expected %s trimmed despite earlier failure, got %d", key, trimmer.trimmed[key])
		}
	}
}
