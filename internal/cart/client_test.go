package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/angelmondragon/storefront/pkg/apiclient"
)

type apiFunc func(ctx context.Context, req apiclient.Request, out any) error

func (f apiFunc) Do(ctx context.Context, req apiclient.Request, out any) error {
	return f(ctx, req, out)
}

func TestClientRequests(t *testing.T) {
	t.Parallel()

	var got []apiclient.Request
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		got = append(got, req)
		if out != nil {
			return json.Unmarshal([]byte(`{"items":[{"id":4,"product_id":9,"quantity":2,"product_price":10,"subtotal":20}],"total_items":2,"total_price":20}`), out)
		}
		return nil
	}))
	ctx := context.Background()

	p, err := client.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.TotalItems != 2 || len(p.Items) != 1 || p.Items[0].ID != 4 {
		t.Fatalf("unexpected projection %+v", p)
	}
	_ = client.AddItem(ctx, 9, 2)
	_ = client.UpdateItem(ctx, 4, 3)
	_ = client.RemoveItem(ctx, 4)
	_ = client.Clear(ctx)

	want := []struct{ method, path string }{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/cart/items"},
		{http.MethodPut, "/cart/items/4"},
		{http.MethodDelete, "/cart/items/4"},
		{http.MethodDelete, "/cart"},
	}
	for i, w := range want {
		if got[i].Method != w.method || got[i].Path != w.path {
			t.Fatalf("call %d: expected %s %s got %s %s", i, w.method, w.path, got[i].Method, got[i].Path)
		}
		if got[i].Resource != "cart" {
			t.Fatalf("call %d: expected cart resource label", i)
		}
	}
	body := got[1].Body.(map[string]any)
	if body["product_id"] != int64(9) || body["quantity"] != 2 {
		t.Fatalf("unexpected add body %+v", body)
	}
}
