package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Item is an immutable order line. PriceAtPurchase is locked when the order
// is created and is never re-derived from the current product price.
type Item struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	SellerID        int64           `json:"seller_id"`
}

// LineTotal is price_at_purchase × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the server-owned order aggregate.
type Order struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"user_id"`
	Status            enums.OrderStatus `json:"status"`
	TotalPrice        decimal.Decimal   `json:"total_price"`
	DeliveryMethod    string            `json:"delivery_method"`
	DeliveryCost      decimal.Decimal   `json:"delivery_cost"`
	DeliveryAddress   string            `json:"delivery_address"`
	Phone             string            `json:"phone"`
	Notes             string            `json:"notes,omitempty"`
	TrackingNumber    string            `json:"tracking_number,omitempty"`
	EstimatedDelivery string            `json:"estimated_delivery,omitempty"`
	CreatedAt         types.Timestamp   `json:"created_at"`
	UpdatedAt         types.Timestamp   `json:"updated_at"`
	Items             []Item            `json:"items"`
}

// Terminal reports whether the order status will not change again.
func (o Order) Terminal() bool {
	return o.Status.IsTerminal()
}

// CreateRequest is the body of POST /orders.
type CreateRequest struct {
	DeliveryMethod  enums.DeliveryMethod `json:"delivery_method"`
	DeliveryCost    decimal.Decimal      `json:"delivery_cost"`
	DeliveryAddress string               `json:"delivery_address"`
	Phone           string               `json:"phone"`
	Notes           string               `json:"notes,omitempty"`
	PaymentMethod   enums.PaymentMethod  `json:"payment_method"`
	PromoCode       string               `json:"promo_code,omitempty"`
}

// StatusUpdate is the seller/admin body of PUT /orders/{id}/status.
type StatusUpdate struct {
	Status            enums.OrderStatus `json:"status"`
	TrackingNumber    string            `json:"tracking_number,omitempty"`
	EstimatedDelivery string            `json:"estimated_delivery,omitempty"`
}
