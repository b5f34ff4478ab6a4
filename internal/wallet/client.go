package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const resource = "wallet"

type api interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Client wraps the /wallet endpoints. Balances are never cached here; every
// call goes to the storefront api.
type Client struct {
	api api
}

func NewClient(api api) *Client {
	return &Client{api: api}
}

func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	var out Balance
	if err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/wallet/balance", Resource: resource}, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

// Deposit tops the wallet up and returns the resulting balance.
func (c *Client) Deposit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, pkgerrors.Fields("invalid amount", map[string]string{"amount": "must be positive"})
	}
	var out Balance
	err := c.api.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Path:     "/wallet/deposit",
		Body:     map[string]any{"amount": json.Number(amount.String())},
		Resource: resource,
	}, &out)
	if err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

func (c *Client) Transactions(ctx context.Context, skip, limit int) (TransactionList, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = pagination.DefaultTransactionLimit
	}
	limit = pagination.NormalizePageSize(limit)

	var out TransactionList
	err := c.api.Do(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/wallet/transactions",
		Query:    url.Values{"skip": []string{strconv.Itoa(skip)}, "limit": []string{strconv.Itoa(limit)}},
		Resource: resource,
	}, &out)
	if err != nil {
		return TransactionList{}, err
	}
	if out.Transactions == nil {
		out.Transactions = []Transaction{}
	}
	return out, nil
}
