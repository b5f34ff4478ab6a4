package wishlist

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Lister reads the session wishlist.
type Lister interface {
	List(ctx context.Context) ([]Item, error)
}

// CartAdder puts lines into the session cart one at a time.
type CartAdder interface {
	AddAll(ctx context.Context, lines []cart.Line) (cart.BatchResult, error)
}

// BulkParams bundle the BulkAdder dependencies.
type BulkParams struct {
	Wishlist Lister
	Cart     CartAdder
	Logger   *logger.Logger
}

// BulkAdder moves the whole wishlist into the cart.
type BulkAdder struct {
	wishlist Lister
	cart     CartAdder
	logg     *logger.Logger
}

func NewBulkAdder(params BulkParams) (*BulkAdder, error) {
	if params.Wishlist == nil {
		return nil, fmt.Errorf("wishlist lister required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	return &BulkAdder{wishlist: params.Wishlist, cart: params.Cart, logg: params.Logger}, nil
}

// AddAllToCart adds one unit of every wishlisted product. The wishlist itself
// is left as is. Lines that fail are reported and do not stop the rest.
func (b *BulkAdder) AddAllToCart(ctx context.Context) (cart.BatchResult, error) {
	items, err := b.wishlist.List(ctx)
	if err != nil {
		return cart.BatchResult{}, err
	}
	if len(items) == 0 {
		return cart.BatchResult{Lines: []cart.LineResult{}}, nil
	}

	lines := make([]cart.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, cart.Line{ProductID: item.ProductID, Quantity: 1})
	}
	result, err := b.cart.AddAll(ctx, lines)
	b.logg.Info(b.logg.WithFields(ctx, map[string]any{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}), "wishlist added to cart")
	return result, err
}
