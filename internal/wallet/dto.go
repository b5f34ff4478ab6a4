package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/types"
)

// Balance is the buyer's virtual wallet balance.
type Balance struct {
	Balance decimal.Decimal `json:"balance"`
}

// Transaction is one wallet ledger entry.
type Transaction struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	Amount       decimal.Decimal `json:"amount"`
	Type         string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    types.Timestamp `json:"created_at"`
}

// TransactionList is the history page returned by the storefront api.
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}
