package activity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionOrderAdded         Action = "order_added"
	ActionItemCancelled      Action = "item_cancelled"
	ActionItemIncreased      Action = "item_increased"
	ActionItemReduced        Action = "item_reduced"
	ActionItemEdited         Action = "item_edited"
	ActionPaymentReceived    Action = "payment_received"
	ActionPartialPayment     Action = "partial_payment_received"
	ActionTableClosed        Action = "table_closed"
	ActionTableReopened      Action = "table_reopened"
	ActionOrdersCancelled    Action = "orders_cancelled"
	ActionTableMoved         Action = "table_moved"
	ActionItemsMoved         Action = "items_moved"
	ActionMovedToAccount     Action = "moved_to_account"
	ActionPaymentTypeChanged Action = "payment_type_changed"
	ActionPaymentReversed    Action = "payment_reversed"
)

var labels = map[Action]string{
	ActionOrderAdded:         "Order added",
	ActionItemCancelled:      "Item cancelled",
	ActionItemIncreased:      "Item increased",
	ActionItemReduced:        "Item reduced",
	ActionItemEdited:         "Item edited",
	ActionPaymentReceived:    "Payment received",
	ActionPartialPayment:     "Partial payment received",
	ActionTableClosed:        "Table closed",
	ActionTableReopened:      "Table reopened",
	ActionOrdersCancelled:    "Orders cancelled",
	ActionTableMoved:         "Table moved",
	ActionItemsMoved:         "Items moved",
	ActionMovedToAccount:     "Moved to account",
	ActionPaymentTypeChanged: "Payment type changed",
	ActionPaymentReversed:    "Payment reversed",
}

func (a Action) Label() string {
	if l, ok := labels[a]; ok {
		return l
	}
	return string(a)
}

func (a Action) Valid() bool {
	_, ok := labels[a]
	return ok
}

type Entry struct {
	ID          string           `json:"id"`
	TableNumber int              `json:"tableNumber"`
	Actor       string           `json:"actor"`
	Action      Action           `json:"action"`
	Label       string           `json:"label"`
	Detail      string           `json:"detail"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	PaymentType *string          `json:"paymentType,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type Filter struct {
	From        time.Time
	To          time.Time
	TableNumber *int
	Limit       int
}

type Store interface {
	Append(ctx context.Context, tenantID string, e Entry) error
	List(ctx context.Context, tenantID string, f Filter) ([]Entry, error)
}
