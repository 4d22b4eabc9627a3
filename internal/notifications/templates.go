package notifications

import (
	"fmt"

	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// template renders the stored title/message pair for one notification type.
// Every member of enums.NotificationType must have an entry here; the handler
// refuses types it cannot render.
type template func(data map[string]string) (title, message string)

var templatesByType = map[enums.NotificationType]template{
	enums.NotificationTypeMerchantRegistered: func(data map[string]string) (string, string) {
		return "New merchant registration",
			fmt.Sprintf("%s has registered and is awaiting verification.", field(data, "merchantName", "A merchant"))
	},
	enums.NotificationTypeProfileVerified: func(data map[string]string) (string, string) {
		return "Profile verified",
			"Your merchant profile has been verified. You can now issue gift cards."
	},
	enums.NotificationTypeProfileRejected: func(data map[string]string) (string, string) {
		msg := "Your merchant profile was rejected."
		if reason := data["reason"]; reason != "" {
			msg = fmt.Sprintf("Your merchant profile was rejected: %s", reason)
		}
		return "Profile rejected", msg
	},
	enums.NotificationTypeGiftCardPurchased: func(data map[string]string) (string, string) {
		return "Gift card purchased",
			fmt.Sprintf("%s purchased a %s gift card.",
				field(data, "buyerName", "A customer"), field(data, "amount", ""))
	},
	enums.NotificationTypeGiftCardRedeemed: func(data map[string]string) (string, string) {
		return "Gift card redeemed",
			fmt.Sprintf("Gift card %s was redeemed for %s.",
				field(data, "code", ""), field(data, "amount", ""))
	},
	enums.NotificationTypeSystemAlert: func(data map[string]string) (string, string) {
		return field(data, "title", "System alert"), field(data, "message", "")
	},
}

// render produces the title and message for the given type.
func render(typ enums.NotificationType, data map[string]string) (string, string, error) {
	tmpl, ok := templatesByType[typ]
	if !ok {
		return "", "", fmt.Errorf("no template registered for notification type %s", typ)
	}
	title, message := tmpl(data)
	return title, message, nil
}

func field(data map[string]string, key, fallback string) string {
	if data != nil && data[key] != "" {
		return data[key]
	}
	return fallback
}
