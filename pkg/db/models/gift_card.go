package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// GiftCard is a purchasable, redeemable stored-value card. Code is the
// QR-encoded redemption handle printed for the holder.
type GiftCard struct {
	ID            uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MerchantID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"merchantId"`
	Code          string               `gorm:"type:text;not null;uniqueIndex" json:"code"`
	InitialAmount decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"initialAmount"`
	Balance       decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"balance"`
	Currency      string               `gorm:"type:text;not null;default:'USD'" json:"currency"`
	Status        enums.GiftCardStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	PurchasedBy   *uuid.UUID           `gorm:"type:uuid" json:"purchasedBy,omitempty"`
	PurchasedAt   *time.Time           `gorm:"type:timestamptz" json:"purchasedAt,omitempty"`
	ExpiresAt     *time.Time           `gorm:"type:timestamptz" json:"expiresAt,omitempty"`
	CreatedAt     time.Time            `gorm:"type:timestamptz;default:now()" json:"createdAt"`
	UpdatedAt     time.Time            `gorm:"type:timestamptz;default:now()" json:"updatedAt"`
}

// GiftCardTransaction records one balance movement on a card.
type GiftCardTransaction struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GiftCardID  uuid.UUID             `gorm:"type:uuid;not null;index" json:"giftCardId"`
	Kind        enums.TransactionKind `gorm:"type:text;not null" json:"kind"`
	Amount      decimal.Decimal       `gorm:"type:numeric(12,2);not null" json:"amount"`
	PerformedBy *uuid.UUID            `gorm:"type:uuid" json:"performedBy,omitempty"`
	CreatedAt   time.Time             `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
