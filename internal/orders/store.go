package orders

import (
	"context"
	"time"

	"tableside-order-services/internal/accounts"
	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/loyalty"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary of the order lifecycle. InTx runs fn
// against a Store bound to one transaction; everything fn writes commits or
// rolls back together.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error

	ListOpen(ctx context.Context, tenantID string) ([]Order, error)
	ListOpenByTable(ctx context.Context, tenantID string, table int) ([]Order, error)
	ListClosedSince(ctx context.Context, tenantID string, since time.Time) ([]Order, error)
	Get(ctx context.Context, tenantID, id string) (*Order, error)

	// Insert stores a new order with Version 1.
	Insert(ctx context.Context, tenantID string, o *Order) error
	// Update writes o if its Version still matches and bumps Version.
	Update(ctx context.Context, tenantID string, o *Order) error

	AppendActivity(ctx context.Context, tenantID string, e activity.Entry) error
	PostAccountDebt(ctx context.Context, tenantID, accountID string, amount decimal.Decimal, table int, description string) (*accounts.Account, error)
	PostLoyalty(ctx context.Context, tenantID, memberID string, p loyalty.Posting) error
}
