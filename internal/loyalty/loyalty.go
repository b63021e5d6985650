package loyalty

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeEarn  TransactionType = "earn"
	TypeSpend TransactionType = "spend"
)

type Member struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	TotalPoints int             `json:"totalPoints"`
	UsedPoints  int             `json:"usedPoints"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	VisitCount  int             `json:"visitCount"`
	LastVisitAt *time.Time      `json:"lastVisitAt"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (m Member) AvailablePoints() int {
	return m.TotalPoints - m.UsedPoints
}

type Transaction struct {
	ID          string          `json:"id"`
	MemberID    string          `json:"memberId"`
	Type        TransactionType `json:"type"`
	Points      int             `json:"points"`
	Description string          `json:"description"`
	OrderID     *string         `json:"orderId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Posting is one atomic ledger write: up to one spend row, up to one earn row,
// and the matching update of the member's cached counters.
type Posting struct {
	Earn        int
	Spend       int
	Spent       decimal.Decimal
	Visit       bool
	OrderID     *string
	Description string
}

func (p Posting) Empty() bool {
	return p.Earn == 0 && p.Spend == 0 && !p.Visit && p.Spent.IsZero()
}

type Store interface {
	FindByPhone(ctx context.Context, tenantID, phone string) (*Member, error)
	Get(ctx context.Context, tenantID, id string) (*Member, error)
	Create(ctx context.Context, tenantID string, m *Member) error
	List(ctx context.Context, tenantID, search string) ([]Member, error)
	Transactions(ctx context.Context, tenantID, memberID string) ([]Transaction, error)
	Post(ctx context.Context, tenantID, memberID string, p Posting) error
}
