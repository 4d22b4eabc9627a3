package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Queue part names mirror the Redis key layout: wait holds runnable jobs,
// delayed holds retry candidates scored by their ready time, completed and
// failed hold capped inspection history.
const (
	partWait      = "wait"
	partDelayed   = "delayed"
	partCompleted = "completed"
	partFailed    = "failed"
)

type redisStore interface {
	PushList(ctx context.Context, key string, value any) error
	PopList(ctx context.Context, key string) (string, error)
	PushListCapped(ctx context.Context, key string, value any, keep int64) error
	ScheduleAt(ctx context.Context, key string, member string, readyAt time.Time) error
	PopDue(ctx context.Context, key string, now time.Time) ([]string, error)
	QueueKey(queue, part string) string
}

// Queue is the producer side of a named background queue.
type Queue struct {
	name  string
	store redisStore
}

// New builds a producer for the named queue.
func New(name string, store redisStore) (*Queue, error) {
	if name == "" {
		return nil, fmt.Errorf("queue name required")
	}
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &Queue{name: name, store: store}, nil
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue marshals the payload and pushes a fresh job onto the wait list.
// The job's EnqueuedAt is captured here, not when a worker picks it up.
func (q *Queue) Enqueue(ctx context.Context, jobName string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", jobName, err)
	}
	job := Job{
		ID:         uuid.NewString(),
		Name:       jobName,
		Payload:    raw,
		Attempts:   0,
		EnqueuedAt: time.Now().UTC(),
	}
	encoded, err := encodeJob(job)
	if err != nil {
		return err
	}
	return q.store.PushList(ctx, q.store.QueueKey(q.name, partWait), encoded)
}
