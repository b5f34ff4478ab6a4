package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const resource = "products"

type api interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Client reads the product catalog and reviews.
type Client struct {
	api api
}

func NewClient(api api) *Client {
	return &Client{api: api}
}

// List returns one page of products matching filter.
func (c *Client) List(ctx context.Context, filter Filter, page pagination.Params) (pagination.Page[Product], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return pagination.Page[Product]{}, pkgerrors.Fields("invalid price range", map[string]string{"min_price": "must not exceed max_price"})
	}
	query := page.Query()
	filter.apply(query)

	var out pagination.Page[Product]
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/products", Query: query, Resource: resource}, &out); err != nil {
		return pagination.Page[Product]{}, err
	}
	if out.Items == nil {
		out.Items = []Product{}
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	var out Product
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: fmt.Sprintf("/products/%d", id), Resource: resource}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Featured(ctx context.Context) ([]Product, error) {
	out := []Product{}
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/products/featured", Resource: resource}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs a free-text product search.
func (c *Client) Search(ctx context.Context, q string) ([]Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, pkgerrors.Fields("search query required", map[string]string{"q": "is required"})
	}
	out := []Product{}
	err := c.api.Do(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/products/search",
		Query:    url.Values{"q": []string{q}},
		Resource: resource,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reviews returns one page of reviews for a product.
func (c *Client) Reviews(ctx context.Context, productID int64, page pagination.Params) (pagination.Page[Review], error) {
	var out pagination.Page[Review]
	err := c.api.Do(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     fmt.Sprintf("/reviews/product/%d", productID),
		Query:    page.Query(),
		Resource: "reviews",
	}, &out)
	if err != nil {
		return pagination.Page[Review]{}, err
	}
	if out.Items == nil {
		out.Items = []Review{}
	}
	return out, nil
}

func (f Filter) apply(q url.Values) {
	if v := strings.TrimSpace(f.Category); v != "" {
		q.Set("category", v)
	}
	if f.MinPrice != nil {
		q.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("max_price", f.MaxPrice.String())
	}
	if v := strings.TrimSpace(f.Search); v != "" {
		q.Set("search", v)
	}
	if f.SellerID > 0 {
		q.Set("seller_id", strconv.FormatInt(f.SellerID, 10))
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		q.Set("sort_order", f.SortOrder)
	}
}
