package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to one recipient.
type Notification struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID   uuid.UUID              `gorm:"type:uuid;not null;index" json:"recipientId"`
	RecipientType enums.RecipientType    `gorm:"type:text;not null" json:"recipientType"`
	Type          enums.NotificationType `gorm:"type:text;not null" json:"type"`
	Title         string                 `gorm:"type:text;not null" json:"title"`
	Message       string                 `gorm:"type:text;not null" json:"message"`
	ResourceType  *string                `gorm:"type:text" json:"resourceType,omitempty"`
	ResourceID    *string                `gorm:"type:text" json:"resourceId,omitempty"`
	ActorID       *uuid.UUID             `gorm:"type:uuid" json:"actorId,omitempty"`
	ActorName     *string                `gorm:"type:text" json:"actorName,omitempty"`
	ReadAt        *time.Time             `gorm:"type:timestamptz" json:"readAt,omitempty"`
	CreatedAt     time.Time              `gorm:"type:timestamptz;not null" json:"createdAt"`
}

// IsRead reports whether the recipient has opened the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
