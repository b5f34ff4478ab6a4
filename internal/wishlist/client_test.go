package wishlist

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type apiFunc func(ctx context.Context, req apiclient.Request, out any) error

func (f apiFunc) Do(ctx context.Context, req apiclient.Request, out any) error {
	return f(ctx, req, out)
}

func TestClientRequests(t *testing.T) {
	t.Parallel()

	var seen []string
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		seen = append(seen, req.Method+" "+req.Path)
		if out != nil {
			return json.Unmarshal([]byte(`[{"id":1,"product_id":4,"product_name":"Lamp","product_price":19.5,"product_image":"","product_rating":4.5,"product_quantity":0}]`), out)
		}
		return nil
	}))
	ctx := context.Background()

	items, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "19.5", items[0].ProductPrice.String())
	assert.False(t, items[0].InStock())

	require.NoError(t, client.Add(ctx, 4))
	require.NoError(t, client.Remove(ctx, 4))
	require.NoError(t, client.Clear(ctx))
	assert.Equal(t, []string{
		http.MethodGet + " /wishlist",
		http.MethodPost + " /wishlist/4",
		http.MethodDelete + " /wishlist/4",
		http.MethodDelete + " /wishlist",
	}, seen)

	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(client.Add(ctx, 0)))
}
