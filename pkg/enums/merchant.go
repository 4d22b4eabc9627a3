package enums

import "fmt"

// MerchantStatus tracks the onboarding verification lifecycle.
type MerchantStatus string

const (
	MerchantStatusPending  MerchantStatus = "pending_verification"
	MerchantStatusVerified MerchantStatus = "verified"
	MerchantStatusRejected MerchantStatus = "rejected"
)

var validMerchantStatuses = []MerchantStatus{
	MerchantStatusPending,
	MerchantStatusVerified,
	MerchantStatusRejected,
}

// IsValid checks whether the given status matches the canonical enum.
func (m MerchantStatus) IsValid() bool {
	for _, candidate := range validMerchantStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMerchantStatus converts raw strings into MerchantStatus.
func ParseMerchantStatus(value string) (MerchantStatus, error) {
	for _, candidate := range validMerchantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merchant status %q", value)
}
