package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type stubLister struct {
	items []Item
	err   error
}

func (s stubLister) List(context.Context) ([]Item, error) {
	return s.items, s.err
}

type recordingCart struct {
	lines      []cart.Line
	calls      int
	outOfStock map[int64]bool
}

func (r *recordingCart) AddAll(_ context.Context, lines []cart.Line) (cart.BatchResult, error) {
	r.calls++
	r.lines = append(r.lines, lines...)
	result := cart.BatchResult{}
	for _, line := range lines {
		lr := cart.LineResult{ProductID: line.ProductID, Quantity: line.Quantity, Added: !r.outOfStock[line.ProductID]}
		if lr.Added {
			result.Succeeded++
		} else {
			lr.Err = pkgerrors.New(pkgerrors.CodeValidation, "Product is out of stock")
			result.Failed++
		}
		result.Lines = append(result.Lines, lr)
	}
	return result, nil
}

func TestAddAllToCartAddsOneOfEach(t *testing.T) {
	t.Parallel()

	c := &recordingCart{outOfStock: map[int64]bool{20: true}}
	adder, err := NewBulkAdder(BulkParams{
		Wishlist: stubLister{items: []Item{{ProductID: 10}, {ProductID: 20}, {ProductID: 30}}},
		Cart:     c,
	})
	require.NoError(t, err)

	result, err := adder.AddAllToCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []cart.Line{{ProductID: 10, Quantity: 1}, {ProductID: 20, Quantity: 1}, {ProductID: 30, Quantity: 1}}, c.lines)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Error(t, result.Err())
}

func TestAddAllToCartEmptyWishlist(t *testing.T) {
	t.Parallel()

	c := &recordingCart{}
	adder, err := NewBulkAdder(BulkParams{Wishlist: stubLister{}, Cart: c})
	require.NoError(t, err)

	result, err := adder.AddAllToCart(context.Background())
	require.NoError(t, err)
	assert.Zero(t, c.calls)
	assert.Empty(t, result.Lines)
}

func TestAddAllToCartListError(t *testing.T) {
	t.Parallel()

	listErr := pkgerrors.New(pkgerrors.CodeDependency, "down")
	c := &recordingCart{}
	adder, err := NewBulkAdder(BulkParams{Wishlist: stubLister{err: listErr}, Cart: c})
	require.NoError(t, err)

	_, err = adder.AddAllToCart(context.Background())
	require.ErrorIs(t, err, listErr)
	assert.Zero(t, c.calls)
}
