package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

type enqueuer interface {
	Enqueue(ctx context.Context, jobName string, payload any) error
}

// Recorder is the write entry point for audit events. Record never returns an
// error: logging activity must not fail the business operation that caused it.
type Recorder struct {
	queue enqueuer
	logg  *logger.Logger
}

// NewRecorder builds a recorder publishing to the activity queue.
func NewRecorder(queue enqueuer, logg *logger.Logger) (*Recorder, error) {
	if queue == nil {
		return nil, fmt.Errorf("activity queue required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Recorder{queue: queue, logg: logg}, nil
}

// Record stamps and enqueues the event. Invalid or unenqueueable events are
// logged and dropped.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.Action == "" || event.Description == "" {
		r.logg.Error(ctx, "dropping activity event without action or description",
			fmt.Errorf("action=%q", event.Action))
		return
	}
	if !event.Category.IsValid() {
		r.logg.Error(ctx, "dropping activity event with unknown category",
			fmt.Errorf("category=%q", event.Category))
		return
	}
	if !event.ActorType.IsValid() {
		event.ActorType = enums.ActorTypeSystem
	}
	if !event.Severity.IsValid() {
		event.Severity = enums.SeverityInfo
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if err := r.queue.Enqueue(ctx, JobRecord, event); err != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"action":   event.Action,
			"category": event.Category,
		})
		r.logg.Error(logCtx, "failed to enqueue activity event", err)
	}
}
