package enums

import "fmt"

// CheckoutAttemptStatus tracks a checkout through charge and finalization.
type CheckoutAttemptStatus string

const (
	CheckoutAttemptPending   CheckoutAttemptStatus = "pending"
	CheckoutAttemptCharged   CheckoutAttemptStatus = "charged"
	CheckoutAttemptCompleted CheckoutAttemptStatus = "completed"
)

var validCheckoutAttemptStatuses = []CheckoutAttemptStatus{
	CheckoutAttemptPending,
	CheckoutAttemptCharged,
	CheckoutAttemptCompleted,
}

func (s CheckoutAttemptStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutAttemptStatus.
func (s CheckoutAttemptStatus) IsValid() bool {
	for _, candidate := range validCheckoutAttemptStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCheckoutAttemptStatus converts raw input into a CheckoutAttemptStatus.
func ParseCheckoutAttemptStatus(value string) (CheckoutAttemptStatus, error) {
	for _, candidate := range validCheckoutAttemptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout attempt status %q", value)
}
