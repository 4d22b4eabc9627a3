package activity

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

type fakeEnqueuer struct {
	jobs []struct {
		name    string
		payload any
	}
	err error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, jobName string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, struct {
		name    string
		payload any
	}{jobName, payload})
	return nil
}

func newTestRecorder(t *testing.T, queue *fakeEnqueuer) *Recorder {
	t.Helper()
	recorder, err := NewRecorder(queue, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return recorder
}

func TestRecordStampsDefaultsAndEnqueues(t *testing.T) {
	queue := &fakeEnqueuer{}
	recorder := newTestRecorder(t, queue)

	before := time.Now().UTC()
	recorder.Record(context.Background(), Event{
		Action:      "merchant.registered",
		Category:    enums.ActivityCategoryMerchant,
		Description: "merchant registered",
	})

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobRecord, queue.jobs[0].name)

	event, ok := queue.jobs[0].payload.(Event)
	require.True(t, ok)
	assert.Equal(t, enums.ActorTypeSystem, event.ActorType)
	assert.Equal(t, enums.SeverityInfo, event.Severity)
	assert.False(t, event.CreatedAt.Before(before))
}

func TestRecordDropsInvalidEvents(t *testing.T) {
	queue := &fakeEnqueuer{}
	recorder := newTestRecorder(t, queue)

	recorder.Record(context.Background(), Event{
		Category:    enums.ActivityCategoryAuth,
		Description: "missing action",
	})
	recorder.Record(context.Background(), Event{
		Action:      "broken.category",
		Category:    "NOPE",
		Description: "bad category",
	})

	assert.Empty(t, queue.jobs)
}

func TestRecordSwallowsEnqueueFailure(t *testing.T) {
	queue := &fakeEnqueuer{err: errors.New("redis down")}
	recorder := newTestRecorder(t, queue)

	// Must not panic or propagate; the caller's operation already succeeded.
	recorder.Record(context.Background(), Event{
		Action:      "auth.login",
		Category:    enums.ActivityCategoryAuth,
		Description: "user logged in",
	})
	assert.Empty(t, queue.jobs)
}
