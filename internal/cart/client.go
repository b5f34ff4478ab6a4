package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront/pkg/apiclient"
)

const resource = "cart"

type api interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Client wraps the /cart endpoints of the storefront api.
type Client struct {
	api api
}

func NewClient(api api) *Client {
	return &Client{api: api}
}

func (c *Client) Get(ctx context.Context) (Projection, error) {
	var out Projection
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/cart", Resource: resource}, &out); err != nil {
		return Projection{}, err
	}
	return out, nil
}

func (c *Client) AddItem(ctx context.Context, productID int64, quantity int) error {
	return c.api.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Path:     "/cart/items",
		Body:     map[string]any{"product_id": productID, "quantity": quantity},
		Resource: resource,
	}, nil)
}

func (c *Client) UpdateItem(ctx context.Context, itemID int64, quantity int) error {
	return c.api.Do(ctx, apiclient.Request{
		Method:   http.MethodPut,
		Path:     fmt.Sprintf("/cart/items/%d", itemID),
		Body:     map[string]any{"quantity": quantity},
		Resource: resource,
	}, nil)
}

func (c *Client) RemoveItem(ctx context.Context, itemID int64) error {
	return c.api.Do(ctx, apiclient.Request{
		Method:   http.MethodDelete,
		Path:     fmt.Sprintf("/cart/items/%d", itemID),
		Resource: resource,
	}, nil)
}

func (c *Client) Clear(ctx context.Context) error {
	return c.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: "/cart", Resource: resource}, nil)
}
