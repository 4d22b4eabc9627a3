package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

type enqueuer interface {
	Enqueue(ctx context.Context, jobName string, payload any) error
}

// Creator is the write entry point for notifications. Like the activity
// recorder it never returns an error to its caller.
type Creator struct {
	queue enqueuer
	logg  *logger.Logger
}

// NewCreator builds a creator publishing to the notifications queue.
func NewCreator(queue enqueuer, logg *logger.Logger) (*Creator, error) {
	if queue == nil {
		return nil, fmt.Errorf("notifications queue required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Creator{queue: queue, logg: logg}, nil
}

// Create stamps and enqueues the request. Invalid requests are logged and
// dropped.
func (c *Creator) Create(ctx context.Context, req CreateRequest) {
	if !req.Type.IsValid() {
		c.logg.Error(ctx, "dropping notification with unknown type", fmt.Errorf("type=%q", req.Type))
		return
	}
	if req.RecipientID == uuid.Nil {
		c.logg.Error(ctx, "dropping notification without recipient", fmt.Errorf("type=%s", req.Type))
		return
	}
	if !req.RecipientType.IsValid() {
		c.logg.Error(ctx, "dropping notification with unknown recipient type", fmt.Errorf("recipient_type=%q", req.RecipientType))
		return
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	if err := c.queue.Enqueue(ctx, JobCreate, req); err != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"type":         req.Type,
			"recipient_id": req.RecipientID,
		})
		c.logg.Error(logCtx, "failed to enqueue notification", err)
	}
}
