package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Totals is the checkout price breakdown.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	DeliveryCost decimal.Decimal `json:"delivery_cost"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

// Compute derives the totals of a cart for a delivery method and an optional,
// already validated promo. The subtotal is the server's total_price. Terms are
// kept exact and only the final values are rounded to the currency precision.
func (p Policy) Compute(c cart.Projection, method enums.DeliveryMethod, promo *Promo) (Totals, error) {
	if c.IsEmpty() {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !method.IsValid() {
		return Totals{}, pkgerrors.Fields("invalid delivery method", map[string]string{"delivery_method": "is invalid"})
	}

	subtotal := c.TotalPrice
	delivery := p.DeliveryCost(method, subtotal)
	discount := decimal.Zero
	if promo != nil {
		discount = promo.DiscountOn(subtotal)
	}

	total := subtotal.Add(delivery).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	exp := p.Exponent
	return Totals{
		Subtotal:     subtotal.Round(exp),
		DeliveryCost: delivery.Round(exp),
		Discount:     discount.Round(exp),
		Total:        total.Round(exp),
	}, nil
}

// Compute prices a cart with the default policy.
func Compute(c cart.Projection, method enums.DeliveryMethod, promo *Promo) (Totals, error) {
	return DefaultPolicy().Compute(c, method, promo)
}
