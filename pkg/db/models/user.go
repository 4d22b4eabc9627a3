package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// User is an authenticated account: platform admin, merchant owner, or shopper.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string         `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"type:text;not null" json:"-"`
	Name         string         `gorm:"type:text;not null" json:"name"`
	Role         enums.UserRole `gorm:"type:text;not null" json:"role"`
	CreatedAt    time.Time      `gorm:"type:timestamptz;default:now()" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"type:timestamptz;default:now()" json:"updatedAt"`
}
