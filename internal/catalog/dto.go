package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/types"
)

// Product is a catalog entry as served by the storefront api.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	SellerID    int64           `json:"seller_id"`
	ImageURLs   []string        `json:"image_urls"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"review_count"`
	IsActive    bool            `json:"is_active"`
	ViewCount   int             `json:"view_count"`
	CreatedAt   types.Timestamp `json:"created_at"`
	UpdatedAt   types.Timestamp `json:"updated_at"`
}

// InStock reports whether at least one unit can be ordered.
func (p Product) InStock() bool {
	return p.IsActive && p.Quantity > 0
}

// Review is a buyer review of a product.
type Review struct {
	ID               int64           `json:"id"`
	ProductID        int64           `json:"product_id"`
	UserID           int64           `json:"user_id"`
	Rating           int             `json:"rating"`
	Title            string          `json:"title,omitempty"`
	Text             string          `json:"text,omitempty"`
	Images           []string        `json:"images"`
	HelpfulCount     int             `json:"helpful_count"`
	VerifiedPurchase bool            `json:"verified_purchase"`
	UserFirstName    string          `json:"user_first_name"`
	UserLastName     string          `json:"user_last_name"`
	CreatedAt        types.Timestamp `json:"created_at"`
}

// Filter narrows a product listing. Zero values are omitted.
type Filter struct {
	Category  string           `json:"category,omitempty"`
	MinPrice  *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice  *decimal.Decimal `json:"max_price,omitempty"`
	Search    string           `json:"search,omitempty"`
	SellerID  int64            `json:"seller_id,omitempty"`
	SortBy    string           `json:"sort_by,omitempty" validate:"omitempty,oneof=price rating created_at name view_count"`
	SortOrder string           `json:"sort_order,omitempty" validate:"omitempty,oneof=asc desc"`
}
