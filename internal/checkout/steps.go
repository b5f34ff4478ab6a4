package checkout

import "github.com/angelmondragon/storefront/pkg/enums"

// NextStep returns the step that follows from for the given delivery method.
// Pickup orders have no address step. The last step returns itself.
func NextStep(from enums.CheckoutStep, method enums.DeliveryMethod) enums.CheckoutStep {
	switch from {
	case enums.CheckoutStepDeliveryMethod:
		if method.RequiresAddress() {
			return enums.CheckoutStepAddress
		}
		return enums.CheckoutStepPayment
	case enums.CheckoutStepAddress:
		return enums.CheckoutStepPayment
	case enums.CheckoutStepPayment:
		return enums.CheckoutStepConfirmation
	}
	return enums.CheckoutStepConfirmation
}

// PrevStep mirrors NextStep. The first step returns itself.
func PrevStep(from enums.CheckoutStep, method enums.DeliveryMethod) enums.CheckoutStep {
	switch from {
	case enums.CheckoutStepConfirmation:
		return enums.CheckoutStepPayment
	case enums.CheckoutStepPayment:
		if method.RequiresAddress() {
			return enums.CheckoutStepAddress
		}
		return enums.CheckoutStepDeliveryMethod
	}
	return enums.CheckoutStepDeliveryMethod
}
