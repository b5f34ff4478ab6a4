package enums

import "fmt"

// CheckoutStep identifies a state of the checkout flow.
type CheckoutStep string

const (
	CheckoutStepDeliveryMethod CheckoutStep = "delivery_method"
	CheckoutStepAddress        CheckoutStep = "address"
	CheckoutStepPayment        CheckoutStep = "payment"
	CheckoutStepConfirmation   CheckoutStep = "confirmation"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepDeliveryMethod,
	CheckoutStepAddress,
	CheckoutStepPayment,
	CheckoutStepConfirmation,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
