package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
)

const defaultExponent int32 = 2

// Policy prices delivery. Pickup is always free; a positive
// FreeShippingThreshold waives courier and mail costs for subtotals at or
// above it.
type Policy struct {
	CourierCost           decimal.Decimal
	MailCost              decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Exponent              int32
}

// DefaultPolicy matches the storefront's published delivery prices.
func DefaultPolicy() Policy {
	return Policy{
		CourierCost: decimal.NewFromInt(500),
		MailCost:    decimal.NewFromInt(2000),
		Exponent:    defaultExponent,
	}
}

func PolicyFromConfig(cfg config.PricingConfig) Policy {
	exponent := cfg.CurrencyExponent
	if exponent < 0 {
		exponent = defaultExponent
	}
	return Policy{
		CourierCost:           decimal.NewFromInt(cfg.CourierCost),
		MailCost:              decimal.NewFromInt(cfg.MailCost),
		FreeShippingThreshold: decimal.NewFromInt(cfg.FreeShippingThreshold),
		Exponent:              exponent,
	}
}

// DeliveryCost returns the unrounded cost of method for a cart worth subtotal.
func (p Policy) DeliveryCost(method enums.DeliveryMethod, subtotal decimal.Decimal) decimal.Decimal {
	var cost decimal.Decimal
	switch method {
	case enums.DeliveryMethodCourier:
		cost = p.CourierCost
	case enums.DeliveryMethodMail:
		cost = p.MailCost
	default:
		return decimal.Zero
	}
	if p.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return cost
}
