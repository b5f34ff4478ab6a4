package wishlist

import "github.com/shopspring/decimal"

// Item is a wishlisted product with the product fields the storefront api
// joins in.
type Item struct {
	ID              int64           `json:"id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductPrice    decimal.Decimal `json:"product_price"`
	ProductImage    string          `json:"product_image"`
	ProductRating   float64         `json:"product_rating"`
	ProductQuantity int             `json:"product_quantity"`
}

// InStock reports whether the product can currently be put in the cart.
func (i Item) InStock() bool {
	return i.ProductQuantity > 0
}
