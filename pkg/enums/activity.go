package enums

import "fmt"

// ActivityCategory buckets activity-log entries by domain area.
type ActivityCategory string

const (
	ActivityCategoryAuth       ActivityCategory = "AUTH"
	ActivityCategoryUser       ActivityCategory = "USER"
	ActivityCategoryMerchant   ActivityCategory = "MERCHANT"
	ActivityCategoryGiftCard   ActivityCategory = "GIFT_CARD"
	ActivityCategoryPurchase   ActivityCategory = "PURCHASE"
	ActivityCategoryRedemption ActivityCategory = "REDEMPTION"
	ActivityCategorySystem     ActivityCategory = "SYSTEM"
)

var validActivityCategories = []ActivityCategory{
	ActivityCategoryAuth,
	ActivityCategoryUser,
	ActivityCategoryMerchant,
	ActivityCategoryGiftCard,
	ActivityCategoryPurchase,
	ActivityCategoryRedemption,
	ActivityCategorySystem,
}

// IsValid checks whether the given category matches the canonical enum.
func (c ActivityCategory) IsValid() bool {
	for _, candidate := range validActivityCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseActivityCategory converts raw strings into ActivityCategory.
func ParseActivityCategory(value string) (ActivityCategory, error) {
	for _, candidate := range validActivityCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity category %q", value)
}

// Severity ranks how serious a logged occurrence is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

var validSeverities = []Severity{
	SeverityInfo,
	SeverityWarning,
	SeverityError,
	SeverityCritical,
}

// IsValid checks whether the given severity matches the canonical enum.
func (s Severity) IsValid() bool {
	for _, candidate := range validSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSeverity converts raw strings into Severity.
func ParseSeverity(value string) (Severity, error) {
	for _, candidate := range validSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid severity %q", value)
}
