package cart

import "github.com/shopspring/decimal"

// Item is one server-owned cart line. Name, price and image are the product
// snapshot taken when the line was added.
type Item struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	Quantity     int             `json:"quantity"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ProductImage string          `json:"product_image,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Projection is the client-held read-only mirror of the server cart.
// Version is the sequence number of the fetch it came from.
type Projection struct {
	Items      []Item          `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Version    uint64          `json:"version"`
}

// Empty is the projection held before the first fetch.
func Empty() Projection {
	return Projection{Items: []Item{}, TotalPrice: decimal.Zero}
}

// IsEmpty reports whether the cart holds no lines.
func (p Projection) IsEmpty() bool {
	return len(p.Items) == 0
}

// Item looks up a line by cart-item id.
func (p Projection) Item(itemID int64) (Item, bool) {
	for _, item := range p.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}

// ItemForProduct looks up the line holding productID.
func (p Projection) ItemForProduct(productID int64) (Item, bool) {
	for _, item := range p.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// Consistent checks total_items == Σ quantity and total_price == Σ subtotal.
func (p Projection) Consistent() bool {
	count := 0
	sum := decimal.Zero
	for _, item := range p.Items {
		count += item.Quantity
		sum = sum.Add(item.Subtotal)
	}
	return count == p.TotalItems && sum.Equal(p.TotalPrice)
}

// Recount returns a copy with aggregates recomputed from the lines. Used only
// for display when the server omits them.
func (p Projection) Recount() Projection {
	next := p.clone()
	next.TotalItems = 0
	next.TotalPrice = decimal.Zero
	for i, item := range next.Items {
		if item.Subtotal.IsZero() && !item.ProductPrice.IsZero() {
			item.Subtotal = item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			next.Items[i] = item
		}
		next.TotalItems += item.Quantity
		next.TotalPrice = next.TotalPrice.Add(item.Subtotal)
	}
	return next
}

func (p Projection) clone() Projection {
	items := make([]Item, len(p.Items))
	copy(items, p.Items)
	p.Items = items
	return p
}

// Replace is the reducer applied when a fetch completes: the fetched snapshot
// wins only if it was issued after the one currently held.
func Replace(current, fetched Projection, seq uint64) (Projection, bool) {
	if seq <= current.Version {
		return current, false
	}
	next := normalize(fetched)
	next.Version = seq
	return next, true
}

// normalize fills aggregates the server left out and guarantees a non-nil slice.
func normalize(p Projection) Projection {
	if p.Items == nil {
		p.Items = []Item{}
	}
	if len(p.Items) > 0 && p.TotalItems == 0 && p.TotalPrice.IsZero() {
		return p.Recount()
	}
	return p.clone()
}
