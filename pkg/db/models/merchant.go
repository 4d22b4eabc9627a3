package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// Merchant is the tenant entity issuing gift cards.
type Merchant struct {
	ID           uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerUserID  uuid.UUID            `gorm:"type:uuid;not null;index" json:"ownerUserId"`
	BusinessName string               `gorm:"type:text;not null" json:"businessName"`
	Email        string               `gorm:"type:text;not null" json:"email"`
	Phone        *string              `gorm:"type:text" json:"phone,omitempty"`
	Status       enums.MerchantStatus `gorm:"type:text;not null;default:'pending_verification'" json:"status"`
	RejectReason *string              `gorm:"type:text" json:"rejectReason,omitempty"`
	VerifiedAt   *time.Time           `gorm:"type:timestamptz" json:"verifiedAt,omitempty"`
	CreatedAt    time.Time            `gorm:"type:timestamptz;default:now()" json:"createdAt"`
	UpdatedAt    time.Time            `gorm:"type:timestamptz;default:now()" json:"updatedAt"`
}
