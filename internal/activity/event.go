package activity

import (
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/db/types"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// QueueName is the Redis queue carrying activity jobs.
const QueueName = "activity"

// JobRecord persists one activity event.
const JobRecord = "record"

// Event is the payload enqueued for asynchronous persistence. CreatedAt is
// stamped when the event is recorded so audit order survives worker delays
// and retries.
type Event struct {
	ActorID      *uuid.UUID             `json:"actorId,omitempty"`
	ActorType    enums.ActorType        `json:"actorType"`
	Action       string                 `json:"action"`
	Category     enums.ActivityCategory `json:"category"`
	Description  string                 `json:"description"`
	ResourceType *string                `json:"resourceType,omitempty"`
	ResourceID   *string                `json:"resourceId,omitempty"`
	Metadata     types.JSONMap          `json:"metadata,omitempty"`
	Severity     enums.Severity         `json:"severity"`
	MerchantID   *uuid.UUID             `json:"merchantId,omitempty"`
	IPAddress    *string                `json:"ipAddress,omitempty"`
	UserAgent    *string                `json:"userAgent,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}
