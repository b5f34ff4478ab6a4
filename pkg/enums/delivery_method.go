package enums

import (
	"fmt"
	"strings"
)

// DeliveryMethod selects how an order reaches the buyer.
type DeliveryMethod string

const (
	DeliveryMethodPickup  DeliveryMethod = "pickup"
	DeliveryMethodCourier DeliveryMethod = "courier"
	DeliveryMethodMail    DeliveryMethod = "mail"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodPickup,
	DeliveryMethodCourier,
	DeliveryMethodMail,
}

// String implements fmt.Stringer.
func (d DeliveryMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (d DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// RequiresAddress is false only for pickup.
func (d DeliveryMethod) RequiresAddress() bool {
	return d.IsValid() && d != DeliveryMethodPickup
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod. "delivery" is
// accepted as an alias for courier.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "delivery" {
		return DeliveryMethodCourier, nil
	}
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
