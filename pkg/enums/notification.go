package enums

import "fmt"

// NotificationType enumerates every in-app notification kind. Each member must
// have a template and a preference flag registered in internal/notifications.
type NotificationType string

const (
	NotificationTypeMerchantRegistered NotificationType = "MERCHANT_REGISTERED"
	NotificationTypeProfileVerified    NotificationType = "PROFILE_VERIFIED"
	NotificationTypeProfileRejected    NotificationType = "PROFILE_REJECTED"
	NotificationTypeGiftCardPurchased  NotificationType = "GIFT_CARD_PURCHASED"
	NotificationTypeGiftCardRedeemed   NotificationType = "GIFT_CARD_REDEEMED"
	NotificationTypeSystemAlert        NotificationType = "SYSTEM_ALERT"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeMerchantRegistered,
	NotificationTypeProfileVerified,
	NotificationTypeProfileRejected,
	NotificationTypeGiftCardPurchased,
	NotificationTypeGiftCardRedeemed,
	NotificationTypeSystemAlert,
}

// NotificationTypes returns every canonical notification type.
func NotificationTypes() []NotificationType {
	types := make([]NotificationType, len(validNotificationTypes))
	copy(types, validNotificationTypes)
	return types
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// RecipientType scopes a notification to its audience kind.
type RecipientType string

const (
	RecipientTypeAdmin    RecipientType = "ADMIN"
	RecipientTypeMerchant RecipientType = "MERCHANT"
)

var validRecipientTypes = []RecipientType{
	RecipientTypeAdmin,
	RecipientTypeMerchant,
}

// IsValid checks whether the given type matches the canonical enum.
func (r RecipientType) IsValid() bool {
	for _, candidate := range validRecipientTypes {
		if candidate == r {
			return true
		}
	}
	return false
}
