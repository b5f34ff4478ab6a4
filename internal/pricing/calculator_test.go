package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func twoLineCart() cart.Projection {
	return cart.Projection{
		Items: []cart.Item{
			{ID: 1, ProductID: 1, Quantity: 2, ProductPrice: dec("1000"), Subtotal: dec("2000")},
			{ID: 2, ProductID: 2, Quantity: 1, ProductPrice: dec("500"), Subtotal: dec("500")},
		},
		TotalItems: 3,
		TotalPrice: dec("2500"),
	}
}

func TestComputePickup(t *testing.T) {
	t.Parallel()

	totals, err := Compute(twoLineCart(), enums.DeliveryMethodPickup, nil)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("2500")))
	assert.True(t, totals.DeliveryCost.IsZero())
	assert.True(t, totals.Discount.IsZero())
	assert.True(t, totals.Total.Equal(dec("2500")))
}

func TestComputeCourierWithPromo(t *testing.T) {
	t.Parallel()

	promo, err := DefaultPromos().Validate(context.Background(), "save10", dec("2500"))
	require.NoError(t, err)

	totals, err := Compute(twoLineCart(), enums.DeliveryMethodCourier, &promo)
	require.NoError(t, err)
	assert.True(t, totals.DeliveryCost.Equal(dec("500")))
	assert.True(t, totals.Discount.Equal(dec("250")))
	assert.True(t, totals.Total.Equal(dec("2750")), "got %s", totals.Total)
}

func TestComputeRoundsOnlyAtTheEnd(t *testing.T) {
	t.Parallel()

	c := cart.Projection{
		Items:      []cart.Item{{ID: 1, ProductID: 1, Quantity: 3, Subtotal: dec("33.335")}},
		TotalItems: 3,
		TotalPrice: dec("33.335"),
	}
	promo := Promo{Code: "X", DiscountPercent: dec("15")}
	policy := Policy{CourierCost: dec("4.995"), Exponent: 2}

	totals, err := policy.Compute(c, enums.DeliveryMethodCourier, &promo)
	require.NoError(t, err)
	// exact: 33.335 + 4.995 - 5.00025 = 33.32975
	assert.Equal(t, "33.33", totals.Total.StringFixed(2))

	again, err := policy.Compute(c, enums.DeliveryMethodCourier, &promo)
	require.NoError(t, err)
	assert.True(t, again.Total.Equal(totals.Total))
}

func TestComputeNeverNegativeAndNeverDiscountsDelivery(t *testing.T) {
	t.Parallel()

	promo := Promo{Code: "ALL", DiscountPercent: dec("150")}
	totals, err := Compute(twoLineCart(), enums.DeliveryMethodMail, &promo)
	require.NoError(t, err)
	assert.True(t, totals.Discount.Equal(dec("2500")))
	assert.True(t, totals.Total.Equal(dec("2000")), "delivery must survive the discount, got %s", totals.Total)
	assert.False(t, totals.Total.IsNegative())
}

func TestComputeFreeShippingThreshold(t *testing.T) {
	t.Parallel()

	policy := PolicyFromConfig(config.PricingConfig{CourierCost: 500, MailCost: 2000, FreeShippingThreshold: 2500, CurrencyExponent: 2})
	totals, err := policy.Compute(twoLineCart(), enums.DeliveryMethodCourier, nil)
	require.NoError(t, err)
	assert.True(t, totals.DeliveryCost.IsZero())

	policy.FreeShippingThreshold = dec("3000")
	totals, err = policy.Compute(twoLineCart(), enums.DeliveryMethodCourier, nil)
	require.NoError(t, err)
	assert.True(t, totals.DeliveryCost.Equal(dec("500")))
}

func TestComputeRejectsEmptyCartAndUnknownMethod(t *testing.T) {
	t.Parallel()

	_, err := Compute(cart.Empty(), enums.DeliveryMethodPickup, nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = Compute(twoLineCart(), enums.DeliveryMethod("drone"), nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestStaticPromos(t *testing.T) {
	t.Parallel()

	promos := DefaultPromos()
	ctx := context.Background()

	_, err := promos.Validate(ctx, "NOPE", dec("100"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Contains(t, typed.FieldErrors(), "promo_code")

	_, err = promos.Validate(ctx, "SAVE20", dec("9999"))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	promo, err := promos.Validate(ctx, " save20 ", dec("10000"))
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", promo.Code)
	assert.True(t, promo.DiscountPercent.Equal(dec("20")))
}
