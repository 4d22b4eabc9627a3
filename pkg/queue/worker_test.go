package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	pkgredis "github.com/giftwavehq/giftwave-backend/pkg/redis"
)

type fakeStore struct {
	mu    sync.Mutex
	lists map[string][]string
	sched map[string]map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists: make(map[string][]string),
		sched: make(map[string]map[string]time.Time),
	}
}

func (f *fakeStore) PushList(ctx context.Context, key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = append([]string{fmt.Sprint(value)}, f.lists[key]...)
	return nil
}

func (f *fakeStore) PopList(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.lists[key]
	if len(list) == 0 {
		return "", pkgredis.Nil
	}
	last := list[len(list)-1]
	f.lists[key] = list[:len(list)-1]
	return last, nil
}

func (f *fakeStore) PushListCapped(ctx context.Context, key string, value any, keep int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = append([]string{fmt.Sprint(value)}, f.lists[key]...)
	if keep > 0 && int64(len(f.lists[key])) > keep {
		f.lists[key] = f.lists[key][:keep]
	}
	return nil
}

func (f *fakeStore) ScheduleAt(ctx context.Context, key string, member string, readyAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.sched[key]
	if set == nil {
		set = make(map[string]time.Time)
		f.sched[key] = set
	}
	set[member] = readyAt
	return nil
}

func (f *fakeStore) PopDue(ctx context.Context, key string, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []string
	for member, readyAt := range f.sched[key] {
		if !readyAt.After(now) {
			due = append(due, member)
			delete(f.sched[key], member)
		}
	}
	return due, nil
}

func (f *fakeStore) QueueKey(queue, part string) string {
	return fmt.Sprintf("gw:queue:%s:%s", queue, part)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testConfig() config.QueueConfig {
	return config.QueueConfig{
		Concurrency:  1,
		MaxAttempts:  3,
		BackoffBase:  100 * time.Millisecond,
		Retention:    5,
		PollInterval: time.Millisecond,
	}
}

func newTestWorker(t *testing.T, store *fakeStore) *Worker {
	t.Helper()
	worker, err := NewWorker(WorkerParams{
		Queue:  "activity",
		Store:  store,
		Config: testConfig(),
		Logger: testLogger(),
	})
	require.NoError(t, err)
	return worker
}

func enqueueTest(t *testing.T, store *fakeStore, jobName string, payload any) {
	t.Helper()
	q, err := New("activity", store)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), jobName, payload))
}

func (f *fakeStore) listSnapshot(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}

func (f *fakeStore) schedSnapshot(key string) map[string]time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Time, len(f.sched[key]))
	for member, readyAt := range f.sched[key] {
		out[member] = readyAt
	}
	return out
}

func archivedRecords(t *testing.T, store *fakeStore, part string) []record {
	t.Helper()
	var out []record
	for _, raw := range store.listSnapshot(store.QueueKey("activity", part)) {
		var rec record
		require.NoError(t, json.Unmarshal([]byte(raw), &rec))
		out = append(out, rec)
	}
	return out
}

func TestEnqueueCapturesEnqueueTime(t *testing.T) {
	store := newFakeStore()
	before := time.Now().UTC()
	enqueueTest(t, store, "record", map[string]string{"k": "v"})

	raw, err := store.PopList(context.Background(), store.QueueKey("activity", partWait))
	require.NoError(t, err)
	job, err := decodeJob(raw)
	require.NoError(t, err)

	assert.Equal(t, "record", job.Name)
	assert.Equal(t, 0, job.Attempts)
	assert.NotEmpty(t, job.ID)
	assert.False(t, job.EnqueuedAt.Before(before))

	var payload map[string]string
	require.NoError(t, job.DecodePayload(&payload))
	assert.Equal(t, "v", payload["k"])
}

func TestWorkerCompletesJob(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)

	var got Job
	worker.Register("record", func(ctx context.Context, job Job) (Result, error) {
		got = job
		return Done, nil
	})

	enqueueTest(t, store, "record", map[string]string{"k": "v"})
	processed, err := worker.processNext(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, 1, got.Attempts)

	completed := archivedRecords(t, store, partCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "completed", completed[0].Status)
	assert.Empty(t, store.listSnapshot(store.QueueKey("activity", partWait)))
}

func TestWorkerSkipIsTerminal(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)
	worker.Register("notify", func(ctx context.Context, job Job) (Result, error) {
		return Skipped, nil
	})

	enqueueTest(t, store, "notify", nil)
	_, err := worker.processNext(context.Background())
	require.NoError(t, err)

	completed := archivedRecords(t, store, partCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "skipped", completed[0].Status)
	assert.Empty(t, store.schedSnapshot(store.QueueKey("activity", partDelayed)))
	assert.Empty(t, store.listSnapshot(store.QueueKey("activity", partFailed)))
}

func TestWorkerRetriesWithBackoff(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)
	worker.Register("record", func(ctx context.Context, job Job) (Result, error) {
		return Done, errors.New("boom")
	})

	enqueueTest(t, store, "record", nil)
	start := time.Now()
	_, err := worker.processNext(context.Background())
	require.NoError(t, err)

	delayed := store.schedSnapshot(store.QueueKey("activity", partDelayed))
	require.Len(t, delayed, 1)
	for raw, readyAt := range delayed {
		job, err := decodeJob(raw)
		require.NoError(t, err)
		assert.Equal(t, 1, job.Attempts)
		delay := readyAt.Sub(start)
		assert.GreaterOrEqual(t, delay, 90*time.Millisecond)
		assert.Less(t, delay, 200*time.Millisecond)
	}
}

func TestWorkerExhaustsRetryBudget(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)
	calls := 0
	worker.Register("record", func(ctx context.Context, job Job) (Result, error) {
		calls++
		return Done, errors.New("still broken")
	})

	enqueueTest(t, store, "record", nil)
	for i := 0; i < 3; i++ {
		processed, err := worker.processNext(context.Background())
		require.NoError(t, err)
		require.True(t, processed, "attempt %d should find a job", i+1)
		// Promote the retry far in the future so the next poll sees it.
		require.NoError(t, worker.promoteDueAt(context.Background(), time.Now().Add(time.Hour)))
	}

	assert.Equal(t, 3, calls)
	failed := archivedRecords(t, store, partFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "failed", failed[0].Status)
	assert.Contains(t, failed[0].Error, "still broken")
	assert.Empty(t, store.schedSnapshot(store.QueueKey("activity", partDelayed)))
}

func TestWorkerRecoversPanickingHandler(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)
	worker.Register("record", func(ctx context.Context, job Job) (Result, error) {
		panic("corrupt payload")
	})

	enqueueTest(t, store, "record", nil)
	require.NotPanics(t, func() {
		_, err := worker.processNext(context.Background())
		require.NoError(t, err)
	})

	// The panic follows the retry path like any handler error.
	delayed := store.schedSnapshot(store.QueueKey("activity", partDelayed))
	require.Len(t, delayed, 1)
	for raw := range delayed {
		job, err := decodeJob(raw)
		require.NoError(t, err)
		assert.Equal(t, 1, job.Attempts)
	}
}

func TestWorkerPanicExhaustsRetryBudget(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)
	worker.Register("record", func(ctx context.Context, job Job) (Result, error) {
		panic("corrupt payload")
	})

	enqueueTest(t, store, "record", nil)
	for i := 0; i < 3; i++ {
		processed, err := worker.processNext(context.Background())
		require.NoError(t, err)
		require.True(t, processed, "attempt %d should find a job", i+1)
		require.NoError(t, worker.promoteDueAt(context.Background(), time.Now().Add(time.Hour)))
	}

	failed := archivedRecords(t, store, partFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "handler panic")
	assert.Contains(t, failed[0].Error, "corrupt payload")
}

func TestWorkerArchivesUnknownJob(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)

	enqueueTest(t, store, "mystery", nil)
	_, err := worker.processNext(context.Background())
	require.NoError(t, err)

	failed := archivedRecords(t, store, partFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "mystery")
}

func TestWorkerRetentionCapsArchives(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)
	worker.Register("record", func(ctx context.Context, job Job) (Result, error) {
		return Done, nil
	})

	for i := 0; i < 8; i++ {
		enqueueTest(t, store, "record", nil)
		_, err := worker.processNext(context.Background())
		require.NoError(t, err)
	}

	completed := archivedRecords(t, store, partCompleted)
	assert.Len(t, completed, 5)
}

func TestRunProcessesUntilCancelled(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)

	done := make(chan struct{})
	worker.Register("record", func(ctx context.Context, job Job) (Result, error) {
		close(done)
		return Done, nil
	})

	enqueueTest(t, store, "record", nil)
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestWorkerIdlesOnEmptyQueue(t *testing.T) {
	store := newFakeStore()
	worker := newTestWorker(t, store)

	processed, err := worker.processNext(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}
