package enums

import "fmt"

// PaymentProvider names the gateway that captured a charge.
type PaymentProvider string

const (
	PaymentProviderSquare PaymentProvider = "square"
	PaymentProviderStripe PaymentProvider = "stripe"
)

var validPaymentProviders = []PaymentProvider{PaymentProviderSquare, PaymentProviderStripe}

func (p PaymentProvider) String() string {
	return string(p)
}

func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePaymentProvider(value string) (PaymentProvider, error) {
	for _, candidate := range validPaymentProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}
