package accounts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDebt    TransactionType = "debt"
	TypePayment TransactionType = "payment"
)

// Account is a running tab ("cari"). Balance is what the holder owes; a
// negative balance is credit in the holder's favour.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Note      string          `json:"note"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	TableNumber *int            `json:"tableNumber,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Entry is one ledger write; the balance moves by +Amount for debt and
// -Amount for payment in the same transaction.
type Entry struct {
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	TableNumber *int
}

func (e Entry) delta() decimal.Decimal {
	if e.Type == TypePayment {
		return e.Amount.Neg()
	}
	return e.Amount
}

type Store interface {
	List(ctx context.Context, tenantID string) ([]Account, error)
	Get(ctx context.Context, tenantID, id string) (*Account, error)
	Create(ctx context.Context, tenantID string, a *Account) error
	Update(ctx context.Context, tenantID string, a *Account) error
	Transactions(ctx context.Context, tenantID, accountID string) ([]Transaction, error)
	Post(ctx context.Context, tenantID, accountID string, e Entry) (*Account, error)
}
