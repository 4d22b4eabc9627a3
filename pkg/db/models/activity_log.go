package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/db/types"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// ActivityLog is one immutable audit entry. CreatedAt is captured when the
// event is enqueued, not when the worker persists it, so queries sorted by
// created_at reflect occurrence order even under concurrent workers.
type ActivityLog struct {
	ID           uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID      *uuid.UUID             `gorm:"type:uuid;index" json:"actorId,omitempty"`
	ActorType    enums.ActorType        `gorm:"type:text;not null" json:"actorType"`
	Action       string                 `gorm:"type:text;not null" json:"action"`
	Category     enums.ActivityCategory `gorm:"type:text;not null;index" json:"category"`
	Description  string                 `gorm:"type:text;not null" json:"description"`
	ResourceType *string                `gorm:"type:text;index:idx_activity_resource" json:"resourceType,omitempty"`
	ResourceID   *string                `gorm:"type:text;index:idx_activity_resource" json:"resourceId,omitempty"`
	Metadata     types.JSONMap          `gorm:"type:jsonb" json:"metadata,omitempty"`
	Severity     enums.Severity         `gorm:"type:text;not null;default:'INFO';index" json:"severity"`
	MerchantID   *uuid.UUID             `gorm:"type:uuid;index" json:"merchantId,omitempty"`
	IPAddress    *string                `gorm:"type:text" json:"ipAddress,omitempty"`
	UserAgent    *string                `gorm:"type:text" json:"userAgent,omitempty"`
	CreatedAt    time.Time              `gorm:"type:timestamptz;not null;index" json:"createdAt"`
}
