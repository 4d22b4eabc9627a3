package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/queue"
)

type publisher interface {
	Publish(ctx context.Context, room string, msg realtime.Message)
}

// HandlerParams wires the persistence handler.
type HandlerParams struct {
	Repo   Repository
	Hub    publisher
	Logger *logger.Logger
}

// Handler persists queued activity events and fans them out to the admin room.
type Handler struct {
	repo Repository
	hub  publisher
	logg *logger.Logger
	now  func() time.Time
}

// NewHandler builds the activity queue handler.
func NewHandler(params HandlerParams) (*Handler, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if params.Hub == nil {
		return nil, fmt.Errorf("realtime hub required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Handler{
		repo: params.Repo,
		hub:  params.Hub,
		logg: params.Logger,
		now:  time.Now,
	}, nil
}

// HandleRecord persists one event. A payload that cannot be decoded is skipped
// because retrying cannot fix it; a failed insert is returned as an error so
// the queue retries it.
func (h *Handler) HandleRecord(ctx context.Context, job queue.Job) (queue.Result, error) {
	var event Event
	if err := job.DecodePayload(&event); err != nil {
		h.logg.Error(ctx, "skipping undecodable activity event", err)
		return queue.Skipped, nil
	}

	log := models.ActivityLog{
		ActorID:      event.ActorID,
		ActorType:    event.ActorType,
		Action:       event.Action,
		Category:     event.Category,
		Description:  event.Description,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		Metadata:     event.Metadata,
		Severity:     event.Severity,
		MerchantID:   event.MerchantID,
		IPAddress:    event.IPAddress,
		UserAgent:    event.UserAgent,
		CreatedAt:    event.CreatedAt,
	}
	if err := h.repo.Create(ctx, &log); err != nil {
		return queue.Done, fmt.Errorf("persist activity event: %w", err)
	}

	h.hub.Publish(ctx, realtime.RoomAdmin, realtime.Message{
		Type: realtime.MessageTypeNewActivity,
		Data: log,
	})

	// The count is recomputed from storage rather than incremented so that
	// dropped or replayed fan-out messages cannot skew it.
	count, err := h.repo.CountSince(ctx, nil, startOfToday(h.now()))
	if err != nil {
		h.logg.Error(ctx, "failed to recompute activity count for fan-out", err)
		return queue.Done, nil
	}
	h.hub.Publish(ctx, realtime.RoomAdmin, realtime.Message{
		Type: realtime.MessageTypeActivityCount,
		Data: map[string]any{"todayCount": count},
	})
	return queue.Done, nil
}

// startOfToday returns local midnight for the provided instant.
func startOfToday(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}
