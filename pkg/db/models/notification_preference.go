package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPreference holds per-recipient opt-out flags, one boolean per
// notification type. A missing row means every type is allowed; the gate in
// internal/notifications only denies on an explicit false.
//
// The flags carry no gorm default tag on purpose: with one, gorm omits
// zero-value columns on insert and a saved false would silently become the
// column default true. The SQL schema keeps DEFAULT true for rows created
// outside the app.
type NotificationPreference struct {
	UserID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	MerchantRegistered bool      `gorm:"not null" json:"merchantRegistered"`
	ProfileVerified    bool      `gorm:"not null" json:"profileVerified"`
	ProfileRejected    bool      `gorm:"not null" json:"profileRejected"`
	GiftCardPurchased  bool      `gorm:"not null" json:"giftCardPurchased"`
	GiftCardRedeemed   bool      `gorm:"not null" json:"giftCardRedeemed"`
	SystemAlert        bool      `gorm:"not null" json:"systemAlert"`
	UpdatedAt          time.Time `gorm:"type:timestamptz" json:"updatedAt"`
}
