package orders

import (
	"context"
	"strings"
	"time"

	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Printer receives automatic print triggers. Implementations decide whether
// this process prints at all and must not block.
type Printer interface {
	OrderPlaced(tenantID string, o Order)
	Addendum(tenantID string, o Order, delta []Item)
}

type noopPrinter struct{}

func (noopPrinter) OrderPlaced(string, Order)       {}
func (noopPrinter) Addendum(string, Order, []Item) {}

// Actor is the authenticated identity performing an action.
type Actor struct {
	UserID string
	Name   string
}

func (a Actor) validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return apperr.Unauthorized("Sign in required")
	}
	return nil
}

type Service struct {
	store   Store
	printer Printer
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(store Store, printer Printer, logger *zap.Logger) *Service {
	if printer == nil {
		printer = noopPrinter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		printer: printer,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Order, error) {
	return s.store.Get(ctx, tenantID, id)
}

func logEntry(table int, actor Actor, action activity.Action, detail string) activity.Entry {
	return activity.Entry{
		TableNumber: table,
		Actor:       actor.Name,
		Action:      action,
		Detail:      detail,
	}
}

func withAmount(e activity.Entry, amount decimal.Decimal) activity.Entry {
	v := amount.Round(2)
	e.Amount = &v
	return e
}

func withPayment(e activity.Entry, paymentType string) activity.Entry {
	p := paymentType
	e.PaymentType = &p
	return e
}

func tableTotal(orders []Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Total)
	}
	return total
}

func allItems(orders []Order) []Item {
	out := make([]Item, 0)
	for _, o := range orders {
		out = append(out, o.Items...)
	}
	return out
}

func (s *Service) openTableOrders(ctx context.Context, tx Store, tenantID string, table int) ([]Order, error) {
	orders, err := tx.ListOpenByTable(ctx, tenantID, table)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperr.NotFound("TABLE_NOT_OPEN", "Table has no open orders")
	}
	return orders, nil
}
