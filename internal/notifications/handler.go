package notifications

import (
	"context"
	"fmt"

	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/queue"
)

type publisher interface {
	Publish(ctx context.Context, room string, msg realtime.Message)
}

// HandlerParams wires the notification queue handler.
type HandlerParams struct {
	Repo   Repository
	Hub    publisher
	Logger *logger.Logger
}

// Handler materializes queued notifications: it applies the preference gate,
// renders the template, persists the row, and fans out to the recipient's
// room.
type Handler struct {
	repo Repository
	hub  publisher
	logg *logger.Logger
}

// NewHandler builds the notifications queue handler.
func NewHandler(params HandlerParams) (*Handler, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Hub == nil {
		return nil, fmt.Errorf("realtime hub required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Handler{repo: params.Repo, hub: params.Hub, logg: params.Logger}, nil
}

// HandleCreate processes one notification job. A recipient who opted out of
// the type yields Skipped: no row, no fan-out, no retry.
func (h *Handler) HandleCreate(ctx context.Context, job queue.Job) (queue.Result, error) {
	var req CreateRequest
	if err := job.DecodePayload(&req); err != nil {
		h.logg.Error(ctx, "skipping undecodable notification job", err)
		return queue.Skipped, nil
	}
	if !req.Type.IsValid() || !req.RecipientType.IsValid() {
		h.logg.Error(ctx, "skipping notification with invalid enums",
			fmt.Errorf("type=%q recipient_type=%q", req.Type, req.RecipientType))
		return queue.Skipped, nil
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"notification_type": req.Type,
		"recipient_id":      req.RecipientID,
	})

	pref, err := h.repo.GetPreferences(ctx, req.RecipientID)
	if err != nil {
		return queue.Done, fmt.Errorf("load notification preferences: %w", err)
	}
	ok, err := allowed(pref, req.Type)
	if err != nil {
		h.logg.Error(logCtx, "skipping notification without preference flag", err)
		return queue.Skipped, nil
	}
	if !ok {
		h.logg.Debug(logCtx, "notification suppressed by recipient preference")
		return queue.Skipped, nil
	}

	title, message, err := render(req.Type, req.Data)
	if err != nil {
		h.logg.Error(logCtx, "skipping notification without template", err)
		return queue.Skipped, nil
	}

	notification := models.Notification{
		RecipientID:   req.RecipientID,
		RecipientType: req.RecipientType,
		Type:          req.Type,
		Title:         title,
		Message:       message,
		ResourceType:  req.ResourceType,
		ResourceID:    req.ResourceID,
		ActorID:       req.ActorID,
		ActorName:     req.ActorName,
		CreatedAt:     req.CreatedAt,
	}
	if err := h.repo.Create(ctx, &notification); err != nil {
		return queue.Done, fmt.Errorf("persist notification: %w", err)
	}

	room := recipientRoom(req)
	h.hub.Publish(ctx, room, realtime.Message{
		Type: realtime.MessageTypeNewNotification,
		Data: notification,
	})

	unread, err := h.repo.CountUnread(ctx, req.RecipientID)
	if err != nil {
		h.logg.Error(logCtx, "failed to recompute unread count for fan-out", err)
		return queue.Done, nil
	}
	h.hub.Publish(ctx, room, realtime.Message{
		Type: realtime.MessageTypeUnreadCount,
		Data: map[string]any{"unreadCount": unread},
	})
	return queue.Done, nil
}

func recipientRoom(req CreateRequest) string {
	if req.RecipientType == enums.RecipientTypeAdmin {
		return realtime.RoomAdmin
	}
	return realtime.MerchantRoom(req.RecipientID)
}
