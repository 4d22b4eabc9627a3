package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// QueueName is the Redis queue carrying notification jobs.
const QueueName = "notifications"

// JobCreate materializes one in-app notification.
const JobCreate = "create"

// CreateRequest is the payload enqueued when the platform wants to notify a
// recipient. Title and message are rendered from the type's template when the
// job is processed.
type CreateRequest struct {
	Type          enums.NotificationType `json:"type"`
	RecipientID   uuid.UUID              `json:"recipientId"`
	RecipientType enums.RecipientType    `json:"recipientType"`
	ActorID       *uuid.UUID             `json:"actorId,omitempty"`
	ActorName     *string                `json:"actorName,omitempty"`
	ResourceType  *string                `json:"resourceType,omitempty"`
	ResourceID    *string                `json:"resourceId,omitempty"`
	Data          map[string]string      `json:"data,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}
