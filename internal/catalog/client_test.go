package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

type apiFunc func(ctx context.Context, req apiclient.Request, out any) error

func (f apiFunc) Do(ctx context.Context, req apiclient.Request, out any) error {
	return f(ctx, req, out)
}

func TestListEncodesFilterAndPage(t *testing.T) {
	t.Parallel()

	var captured apiclient.Request
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		captured = req
		return json.Unmarshal([]byte(`{"items":[{"id":1,"name":"Lamp","price":1999.5,"quantity":3,"is_active":true,"created_at":"2025-01-02T03:04:05"}],"total":1,"page":2,"page_size":10,"total_pages":1}`), out)
	}))

	floor := decimal.NewFromInt(100)
	page, err := client.List(context.Background(), Filter{Category: "home", MinPrice: &floor, SortBy: "price", SortOrder: "asc"}, pagination.Params{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	q := captured.Query
	if captured.Path != "/products" || q.Get("page") != "2" || q.Get("page_size") != "10" || q.Get("category") != "home" || q.Get("min_price") != "100" || q.Get("sort_by") != "price" {
		t.Fatalf("unexpected request %s %v", captured.Path, q)
	}
	if q.Has("max_price") || q.Has("seller_id") {
		t.Fatalf("zero filters must be omitted: %v", q)
	}
	if len(page.Items) != 1 || !page.Items[0].InStock() || page.Items[0].CreatedAt.Year() != 2025 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestListRejectsInvertedPriceRange(t *testing.T) {
	t.Parallel()

	client := NewClient(apiFunc(func(context.Context, apiclient.Request, any) error {
		t.Fatalf("api must not be called")
		return nil
	}))
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(5)
	_, err := client.List(context.Background(), Filter{MinPrice: &lo, MaxPrice: &hi}, pagination.Params{})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	t.Parallel()

	var captured apiclient.Request
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		captured = req
		return json.Unmarshal([]byte(`[{"id":5,"name":"Desk lamp"}]`), out)
	}))
	if _, err := client.Search(context.Background(), "   "); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	products, err := client.Search(context.Background(), " lamp ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if captured.Path != "/products/search" || captured.Query.Get("q") != "lamp" {
		t.Fatalf("unexpected request %+v", captured)
	}
	if len(products) != 1 || products[0].ID != 5 {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestReviewsPath(t *testing.T) {
	t.Parallel()

	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		if req.Path != "/reviews/product/9" {
			t.Fatalf("unexpected path %s", req.Path)
		}
		return nil
	}))
	page, err := client.Reviews(context.Background(), 9, pagination.Params{})
	if err != nil {
		t.Fatalf("reviews: %v", err)
	}
	if page.Items == nil {
		t.Fatalf("expected non-nil items")
	}
}
