package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type failingProduct struct {
	*fakeResource
	productID int64
}

func (f failingProduct) AddItem(ctx context.Context, productID int64, quantity int) error {
	if productID == f.productID {
		return pkgerrors.New(pkgerrors.CodeValidation, "Insufficient stock")
	}
	return f.fakeResource.AddItem(ctx, productID, quantity)
}

func TestAddAllReportsPartialFailure(t *testing.T) {
	t.Parallel()

	res := newFakeResource()
	store := newTestStore(t, failingProduct{fakeResource: res, productID: 2})

	result, err := store.AddAll(context.Background(), []Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Lines, 3)
	assert.True(t, result.Lines[0].Added)
	assert.False(t, result.Lines[1].Added)
	assert.True(t, result.Lines[2].Added)

	assert.Len(t, result.Cart.Items, 2)
	_, has2 := result.Cart.ItemForProduct(2)
	assert.False(t, has2)
	assert.True(t, result.Cart.Consistent())
	assert.Len(t, multierr.Errors(result.Err()), 1)

	// one fetch after the batch, not one per line
	assert.Equal(t, 1, res.gets)
}

func TestAddAllSkipsRefreshWhenNothingLanded(t *testing.T) {
	t.Parallel()

	res := newFakeResource()
	store := newTestStore(t, res)
	result, err := store.AddAll(context.Background(), []Line{{ProductID: 1, Quantity: 0}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(result.Lines[0].Err))
	assert.Zero(t, res.gets)
	assert.NoError(t, BatchResult{}.Err())
}
