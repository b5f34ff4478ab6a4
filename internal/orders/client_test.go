package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

type apiFunc func(ctx context.Context, req apiclient.Request, out any) error

func (f apiFunc) Do(ctx context.Context, req apiclient.Request, out any) error {
	return f(ctx, req, out)
}

const orderJSON = `{"id":12,"user_id":3,"status":"processing","total_price":2750,"delivery_method":"courier","delivery_cost":500,
"delivery_address":"Abay 10, Almaty","phone":"+7 700 123 4567","created_at":"2025-06-01T09:30:00","updated_at":"2025-06-01T09:30:00",
"items":[{"id":1,"order_id":12,"product_id":5,"quantity":2,"price_at_purchase":1000,"seller_id":8}]}`

func TestCreateSendsIdempotencyKey(t *testing.T) {
	t.Parallel()

	var captured apiclient.Request
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		captured = req
		return json.Unmarshal([]byte(orderJSON), out)
	}))

	order, err := client.Create(context.Background(), CreateRequest{DeliveryMethod: enums.DeliveryMethodCourier, PaymentMethod: enums.PaymentMethodCash}, "key-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if captured.Method != http.MethodPost || captured.Path != "/orders" || captured.Header.Get("Idempotency-Key") != "key-1" {
		t.Fatalf("unexpected request %+v", captured)
	}
	if order.ID != 12 || order.Status != enums.OrderStatusProcessing || len(order.Items) != 1 || order.CreatedAt.IsZero() {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestOneRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	client := NewClient(apiFunc(func(_ context.Context, _ apiclient.Request, out any) error {
		return json.Unmarshal([]byte(`{"id":1,"status":"completed"}`), out)
	}))
	_, err := client.Get(context.Background(), 1)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error for unknown status, got %v", err)
	}
}

func TestClientPaths(t *testing.T) {
	t.Parallel()

	var paths []string
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		paths = append(paths, req.Method+" "+req.Path)
		if _, ok := out.(*pagination.Page[Order]); ok {
			return json.Unmarshal([]byte(`{"items":[],"total":0,"page":1,"page_size":20,"total_pages":0}`), out)
		}
		return json.Unmarshal([]byte(orderJSON), out)
	}))
	ctx := context.Background()

	if _, err := client.List(ctx, pagination.Params{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	_, _ = client.Get(ctx, 12)
	_, _ = client.Cancel(ctx, 12)
	_, _ = client.Track(ctx, "TRK 1")
	_, _ = client.UpdateStatus(ctx, 12, StatusUpdate{Status: enums.OrderStatusShipped, TrackingNumber: "TRK1"})

	want := []string{"GET /orders", "GET /orders/12", "POST /orders/12/cancel", "GET /orders/track/TRK%201", "PUT /orders/12/status"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("call %d: expected %q got %q", i, want[i], paths[i])
		}
	}

	if _, err := client.Track(ctx, " "); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty tracking number")
	}
	if _, err := client.UpdateStatus(ctx, 12, StatusUpdate{Status: "completed"}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown status")
	}
}
