package enums

import "fmt"

// GiftCardStatus tracks a card through its spend lifecycle.
type GiftCardStatus string

const (
	GiftCardStatusActive   GiftCardStatus = "active"
	GiftCardStatusRedeemed GiftCardStatus = "redeemed"
	GiftCardStatusExpired  GiftCardStatus = "expired"
	GiftCardStatusDisabled GiftCardStatus = "disabled"
)

var validGiftCardStatuses = []GiftCardStatus{
	GiftCardStatusActive,
	GiftCardStatusRedeemed,
	GiftCardStatusExpired,
	GiftCardStatusDisabled,
}

// IsValid checks whether the given status matches the canonical enum.
func (g GiftCardStatus) IsValid() bool {
	for _, candidate := range validGiftCardStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGiftCardStatus converts raw strings into GiftCardStatus.
func ParseGiftCardStatus(value string) (GiftCardStatus, error) {
	for _, candidate := range validGiftCardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gift card status %q", value)
}

// TransactionKind labels gift-card balance movements.
type TransactionKind string

const (
	TransactionKindPurchase   TransactionKind = "purchase"
	TransactionKindRedemption TransactionKind = "redemption"
)

// IsValid checks whether the given kind matches the canonical enum.
func (k TransactionKind) IsValid() bool {
	return k == TransactionKindPurchase || k == TransactionKindRedemption
}
