package wishlist

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const resource = "wishlist"

type api interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Client wraps the /wishlist endpoints of the storefront api.
type Client struct {
	api api
}

func NewClient(api api) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context) ([]Item, error) {
	var out []Item
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/wishlist", Resource: resource}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Item{}
	}
	return out, nil
}

// Add is idempotent upstream: adding a listed product is not an error.
func (c *Client) Add(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return pkgerrors.Fields("invalid product", map[string]string{"product_id": "must be positive"})
	}
	return c.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: fmt.Sprintf("/wishlist/%d", productID), Resource: resource}, nil)
}

func (c *Client) Remove(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return pkgerrors.Fields("invalid product", map[string]string{"product_id": "must be positive"})
	}
	return c.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: fmt.Sprintf("/wishlist/%d", productID), Resource: resource}, nil)
}

func (c *Client) Clear(ctx context.Context) error {
	return c.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: "/wishlist", Resource: resource}, nil)
}
