package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const (
	resource          = "orders"
	idempotencyHeader = "Idempotency-Key"
)

type api interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Client wraps the /orders endpoints of the storefront api.
type Client struct {
	api api
}

func NewClient(api api) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context, page pagination.Params) (pagination.Page[Order], error) {
	var out pagination.Page[Order]
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/orders", Query: page.Query(), Resource: resource}, &out); err != nil {
		return pagination.Page[Order]{}, err
	}
	if out.Items == nil {
		out.Items = []Order{}
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Order, error) {
	return c.one(ctx, apiclient.Request{Method: http.MethodGet, Path: fmt.Sprintf("/orders/%d", id), Resource: resource})
}

// Create places an order from the session's cart. The key lets the upstream
// drop a replayed request.
func (c *Client) Create(ctx context.Context, req CreateRequest, idempotencyKey string) (*Order, error) {
	header := http.Header{}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		header.Set(idempotencyHeader, key)
	}
	return c.one(ctx, apiclient.Request{Method: http.MethodPost, Path: "/orders", Body: req, Header: header, Resource: resource})
}

func (c *Client) Cancel(ctx context.Context, id int64) (*Order, error) {
	return c.one(ctx, apiclient.Request{Method: http.MethodPost, Path: fmt.Sprintf("/orders/%d/cancel", id), Resource: resource})
}

func (c *Client) Track(ctx context.Context, trackingNumber string) (*Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, pkgerrors.Fields("tracking number required", map[string]string{"tracking_number": "is required"})
	}
	return c.one(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/orders/track/" + url.PathEscape(trackingNumber),
		Resource: resource,
	})
}

// UpdateStatus is the seller and admin transition endpoint.
func (c *Client) UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*Order, error) {
	if !update.Status.IsValid() {
		return nil, pkgerrors.Fields("invalid status", map[string]string{"status": "is invalid"})
	}
	return c.one(ctx, apiclient.Request{
		Method:   http.MethodPut,
		Path:     fmt.Sprintf("/orders/%d/status", id),
		Body:     update,
		Resource: resource,
	})
}

func (c *Client) one(ctx context.Context, req apiclient.Request) (*Order, error) {
	var out Order
	if err := c.api.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	if !out.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("order %d has unknown status %q", out.ID, out.Status))
	}
	return &out, nil
}
