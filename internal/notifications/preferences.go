package notifications

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// preferenceFlagsByType maps each notification type to its opt-out flag. The
// table must stay exhaustive over enums.NotificationType; allowed refuses
// types it does not know.
var preferenceFlagsByType = map[enums.NotificationType]func(models.NotificationPreference) bool{
	enums.NotificationTypeMerchantRegistered: func(p models.NotificationPreference) bool { return p.MerchantRegistered },
	enums.NotificationTypeProfileVerified:    func(p models.NotificationPreference) bool { return p.ProfileVerified },
	enums.NotificationTypeProfileRejected:    func(p models.NotificationPreference) bool { return p.ProfileRejected },
	enums.NotificationTypeGiftCardPurchased:  func(p models.NotificationPreference) bool { return p.GiftCardPurchased },
	enums.NotificationTypeGiftCardRedeemed:   func(p models.NotificationPreference) bool { return p.GiftCardRedeemed },
	enums.NotificationTypeSystemAlert:        func(p models.NotificationPreference) bool { return p.SystemAlert },
}

// allowed applies the preference gate. A nil preference row means the
// recipient never opted out of anything, so every type is allowed. Only an
// explicit false on the type's flag denies delivery.
func allowed(pref *models.NotificationPreference, typ enums.NotificationType) (bool, error) {
	flag, ok := preferenceFlagsByType[typ]
	if !ok {
		return false, fmt.Errorf("no preference flag registered for notification type %s", typ)
	}
	if pref == nil {
		return true, nil
	}
	return flag(*pref), nil
}

// defaultPreferences returns the all-allowed preference row used when a
// recipient has never saved preferences.
func defaultPreferences(userID uuid.UUID) models.NotificationPreference {
	return models.NotificationPreference{
		UserID:             userID,
		MerchantRegistered: true,
		ProfileVerified:    true,
		ProfileRejected:    true,
		GiftCardPurchased:  true,
		GiftCardRedeemed:   true,
		SystemAlert:        true,
	}
}
