package wallet

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type apiFunc func(ctx context.Context, req apiclient.Request, out any) error

func (f apiFunc) Do(ctx context.Context, req apiclient.Request, out any) error {
	return f(ctx, req, out)
}

func TestBalanceIsFetchedEveryCall(t *testing.T) {
	t.Parallel()

	balances := []string{`{"balance": 3000}`, `{"balance": 1200.5}`}
	calls := 0
	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		if req.Path != "/wallet/balance" {
			t.Fatalf("unexpected path %s", req.Path)
		}
		raw := balances[calls]
		calls++
		return json.Unmarshal([]byte(raw), out)
	}))

	first, err := client.Balance(context.Background())
	if err != nil || !first.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected first balance %s %v", first, err)
	}
	second, err := client.Balance(context.Background())
	if err != nil || !second.Equal(decimal.RequireFromString("1200.5")) {
		t.Fatalf("unexpected second balance %s %v", second, err)
	}
}

func TestDepositRejectsNonPositive(t *testing.T) {
	t.Parallel()

	client := NewClient(apiFunc(func(context.Context, apiclient.Request, any) error {
		t.Fatalf("api must not be called")
		return nil
	}))
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		if _, err := client.Deposit(context.Background(), amount); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %s, got %v", amount, err)
		}
	}
}

func TestTransactionsDefaultsWindow(t *testing.T) {
	t.Parallel()

	client := NewClient(apiFunc(func(_ context.Context, req apiclient.Request, out any) error {
		if req.Query.Get("skip") != "0" || req.Query.Get("limit") != "50" {
			t.Fatalf("unexpected query %v", req.Query)
		}
		return json.Unmarshal([]byte(`{"transactions":[{"id":1,"amount":500,"type":"deposit","balance_after":500,"created_at":"2025-05-01T10:00:00"}],"total":1}`), out)
	}))
	list, err := client.Transactions(context.Background(), -1, 0)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if list.Total != 1 || len(list.Transactions) != 1 || !list.Transactions[0].BalanceAfter.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected list %+v", list)
	}
}
