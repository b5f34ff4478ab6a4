package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Promo is a promo code whose discount has already been validated.
type Promo struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// DiscountOn returns subtotal × percent / 100, clamped to [0, subtotal].
// Delivery is never discounted.
func (p Promo) DiscountOn(subtotal decimal.Decimal) decimal.Decimal {
	if !p.DiscountPercent.IsPositive() || !subtotal.IsPositive() {
		return decimal.Zero
	}
	discount := subtotal.Mul(p.DiscountPercent).Div(hundred)
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// PromoValidator decides whether a code applies to a cart worth subtotal.
type PromoValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Promo, error)
}

// PromoRule is one entry of a static promo catalog.
type PromoRule struct {
	Percent     decimal.Decimal
	MinSubtotal decimal.Decimal
}

// StaticPromos is an in-process promo catalog keyed by upper-case code.
type StaticPromos map[string]PromoRule

// DefaultPromos is the catalog the storefront ships with.
func DefaultPromos() StaticPromos {
	return StaticPromos{
		"SAVE10":  {Percent: decimal.NewFromInt(10)},
		"SAVE20":  {Percent: decimal.NewFromInt(20), MinSubtotal: decimal.NewFromInt(10000)},
		"WELCOME": {Percent: decimal.NewFromInt(15)},
	}
}

func (s StaticPromos) Validate(_ context.Context, code string, subtotal decimal.Decimal) (Promo, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return Promo{}, pkgerrors.Fields("promo code required", map[string]string{"promo_code": "is required"})
	}
	rule, ok := s[normalized]
	if !ok {
		return Promo{}, pkgerrors.Fields("invalid promo code", map[string]string{"promo_code": "is not a valid promo code"})
	}
	if rule.MinSubtotal.IsPositive() && subtotal.LessThan(rule.MinSubtotal) {
		return Promo{}, pkgerrors.Fields("promo code not applicable", map[string]string{
			"promo_code": "requires an order of at least " + rule.MinSubtotal.String(),
		})
	}
	return Promo{Code: normalized, DiscountPercent: rule.Percent}, nil
}
