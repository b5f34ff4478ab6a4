package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func twoLineCart() Projection {
	return Projection{
		Items: []Item{
			{ID: 10, ProductID: 1, Quantity: 2, ProductPrice: decimal.NewFromInt(1000), Subtotal: decimal.NewFromInt(2000)},
			{ID: 11, ProductID: 2, Quantity: 1, ProductPrice: decimal.NewFromInt(500), Subtotal: decimal.NewFromInt(500)},
		},
		TotalItems: 3,
		TotalPrice: decimal.NewFromInt(2500),
	}
}

func TestReplaceDiscardsOlderFetch(t *testing.T) {
	current := twoLineCart()
	current.Version = 5

	next, applied := Replace(current, Empty(), 4)
	if applied {
		t.Fatalf("fetch issued before the held snapshot must be discarded")
	}
	if len(next.Items) != 2 || next.Version != 5 {
		t.Fatalf("expected held snapshot, got %+v", next)
	}

	next, applied = Replace(current, Empty(), 6)
	if !applied || !next.IsEmpty() || next.Version != 6 {
		t.Fatalf("expected newer fetch to win, got %+v applied=%v", next, applied)
	}
}

func TestReplaceDoesNotAliasFetchedItems(t *testing.T) {
	fetched := twoLineCart()
	next, _ := Replace(Empty(), fetched, 1)
	fetched.Items[0].Quantity = 99
	if next.Items[0].Quantity != 2 {
		t.Fatalf("replace must copy the fetched lines")
	}
}

func TestConsistent(t *testing.T) {
	p := twoLineCart()
	if !p.Consistent() {
		t.Fatalf("expected consistent cart")
	}
	p.TotalItems = 4
	if p.Consistent() {
		t.Fatalf("expected inconsistency on item count")
	}
	if !Empty().Consistent() {
		t.Fatalf("empty cart is consistent")
	}
}

func TestNormalizeRecountsMissingAggregates(t *testing.T) {
	var p Projection
	if err := json.Unmarshal([]byte(`{"items":[{"id":1,"product_id":7,"quantity":3,"product_price":"12.50"}]}`), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	next, _ := Replace(Empty(), p, 1)
	if next.TotalItems != 3 || !next.TotalPrice.Equal(decimal.RequireFromString("37.5")) {
		t.Fatalf("expected recounted aggregates, got %d %s", next.TotalItems, next.TotalPrice)
	}
	if !next.Consistent() {
		t.Fatalf("recounted projection must be consistent")
	}
}
