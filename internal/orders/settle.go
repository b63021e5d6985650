package orders

import (
	"context"
	"fmt"

	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

var allowedDiscounts = map[int]bool{0: true, 5: true, 10: true, 15: true, 20: true}

// ApplyDiscount returns total less pct percent, rounded to the minor unit.
func ApplyDiscount(total decimal.Decimal, pct int) decimal.Decimal {
	if pct <= 0 {
		return total.Round(2)
	}
	off := total.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
	return total.Sub(off).Round(2)
}

type Payment struct {
	Method          string
	DiscountPercent int
}

func (p Payment) validate() error {
	if !ValidPaymentType(p.Method) || p.Method == PaymentCari {
		return apperr.Validation("INVALID_PAYMENT_TYPE", "Payment type is not valid")
	}
	if !allowedDiscounts[p.DiscountPercent] {
		return apperr.Validation("INVALID_DISCOUNT", "Discount must be one of 0, 5, 10, 15 or 20 percent")
	}
	return nil
}

type Settlement struct {
	Table           int             `json:"table"`
	Orders          []Order         `json:"orders"`
	Total           decimal.Decimal `json:"total"`
	DiscountPercent int             `json:"discountPercent"`
	Collected       decimal.Decimal `json:"collected"`
	PaymentType     string          `json:"paymentType"`
	Closed          bool            `json:"closed"`
}

func paymentDetail(items []Item, pct int) string {
	detail := describeItems(items)
	if pct > 0 {
		detail = fmt.Sprintf("%d%% discount; %s", pct, detail)
	}
	return detail
}

// PayAll closes every open order on the table as paid. The discount only
// affects the collected amount in the log; stored order totals are not
// discounted.
func (s *Service) PayAll(ctx context.Context, tenantID string, actor Actor, table int, p Payment) (*Settlement, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	var result *Settlement
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, table)
		if err != nil {
			return err
		}
		result, err = s.payOrders(ctx, tx, tenantID, actor, table, orders, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func errNegativeTotal() error {
	return apperr.Validation("NEGATIVE_TOTAL", "Amount to collect cannot be below zero")
}

// recordCollected stores each order's share of collected. The rounding
// remainder lands on the last order so the shares add up exactly.
func recordCollected(orders []Order, pct int, collected decimal.Decimal) {
	rest := collected
	for i := range orders {
		share := ApplyDiscount(orders[i].Total, pct)
		if i == len(orders)-1 {
			share = rest
		}
		rest = rest.Sub(share)
		orders[i].Collected = &share
	}
}

func (s *Service) payOrders(ctx context.Context, tx Store, tenantID string, actor Actor, table int, orders []Order, p Payment) (*Settlement, error) {
	total := tableTotal(orders)
	collected := ApplyDiscount(total, p.DiscountPercent)
	if collected.IsNegative() {
		return nil, errNegativeTotal()
	}
	now := s.now()
	method := p.Method
	for i := range orders {
		orders[i].close(Paid, &method, now)
	}
	recordCollected(orders, p.DiscountPercent, collected)
	for i := range orders {
		if err := tx.Update(ctx, tenantID, &orders[i]); err != nil {
			return nil, err
		}
	}

	payment := logEntry(table, actor, activity.ActionPaymentReceived, paymentDetail(allItems(orders), p.DiscountPercent))
	if err := tx.AppendActivity(ctx, tenantID, withPayment(withAmount(payment, collected), method)); err != nil {
		return nil, err
	}
	closed := logEntry(table, actor, activity.ActionTableClosed, fmt.Sprintf("Table %d closed", table))
	if err := tx.AppendActivity(ctx, tenantID, withAmount(closed, collected)); err != nil {
		return nil, err
	}
	return &Settlement{
		Table:           table,
		Orders:          orders,
		Total:           total.Round(2),
		DiscountPercent: p.DiscountPercent,
		Collected:       collected,
		PaymentType:     method,
		Closed:          true,
	}, nil
}

// selection is a set of product line ids. Adjustment lines are never picked
// directly; they go with their order once all its products are picked.
type selection struct {
	picked   map[string]bool
	products int
}

func newSelection(orders []Order, lineIDs []string) (*selection, error) {
	if len(lineIDs) == 0 {
		return nil, apperr.Validation("EMPTY_SELECTION", "Select at least one item")
	}
	sel := &selection{picked: make(map[string]bool, len(lineIDs))}
	for _, id := range lineIDs {
		oi, ii, ok := locate(orders, id)
		if !ok {
			return nil, apperr.NotFound("LINE_NOT_FOUND", "Item is no longer on this table").
				WithDetails(map[string]any{"lineId": id})
		}
		if orders[oi].Items[ii].Adjustment() {
			return nil, errAdjustmentLine(id)
		}
		sel.picked[id] = true
	}
	for _, o := range orders {
		for _, it := range o.Items {
			if !it.Adjustment() {
				sel.products++
			}
		}
	}
	return sel, nil
}

func (sel *selection) everything() bool {
	return len(sel.picked) == sel.products
}

// split partitions an order's items into selected and remaining. An order
// giving up all its products gives up everything; otherwise the remainder
// keeps the adjustments, clamped so it cannot go below zero.
func (sel *selection) split(o Order) (picked, rest []Item) {
	for _, it := range o.Items {
		if !it.Adjustment() && sel.picked[it.LineID] {
			picked = append(picked, it)
		} else {
			rest = append(rest, it)
		}
	}
	if len(picked) == 0 {
		return nil, o.Items
	}
	if !HasProducts(rest) {
		return o.Items, nil
	}
	return picked, clampAdjustments(rest)
}

// closeSelected removes the selected lines from each order. Orders left with
// nothing are closed with d, keeping their lines; the others keep only their
// remaining lines. Orders closed as paid record their share at pct discount.
func (s *Service) closeSelected(ctx context.Context, tx Store, tenantID string, orders []Order, sel *selection, d Disposition, paymentType *string, pct int) ([]Order, []Item, error) {
	now := s.now()
	changed := make([]Order, 0)
	moved := make([]Item, 0)
	for i := range orders {
		picked, rest := sel.split(orders[i])
		if len(picked) == 0 {
			continue
		}
		moved = append(moved, picked...)
		if len(rest) == 0 {
			orders[i].close(d, paymentType, now)
			if d == Paid {
				share := ApplyDiscount(orders[i].Total, pct)
				orders[i].Collected = &share
			}
		} else {
			orders[i].SetItems(rest)
		}
		if err := tx.Update(ctx, tenantID, &orders[i]); err != nil {
			return nil, nil, err
		}
		changed = append(changed, orders[i])
	}
	return changed, moved, nil
}

// PaySelected settles only the chosen lines. Choosing every line on the table
// is the same as PayAll.
func (s *Service) PaySelected(ctx context.Context, tenantID string, actor Actor, table int, lineIDs []string, p Payment) (*Settlement, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	var result *Settlement
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, table)
		if err != nil {
			return err
		}
		sel, err := newSelection(orders, lineIDs)
		if err != nil {
			return err
		}
		if sel.everything() {
			result, err = s.payOrders(ctx, tx, tenantID, actor, table, orders, p)
			return err
		}

		method := p.Method
		changed, paid, err := s.closeSelected(ctx, tx, tenantID, orders, sel, Paid, &method, p.DiscountPercent)
		if err != nil {
			return err
		}
		total := SumItems(paid)
		collected := ApplyDiscount(total, p.DiscountPercent)
		if collected.IsNegative() {
			return errNegativeTotal()
		}
		entry := logEntry(table, actor, activity.ActionPartialPayment, paymentDetail(paid, p.DiscountPercent))
		if err := tx.AppendActivity(ctx, tenantID, withPayment(withAmount(entry, collected), method)); err != nil {
			return err
		}
		result = &Settlement{
			Table:           table,
			Orders:          changed,
			Total:           total,
			DiscountPercent: p.DiscountPercent,
			Collected:       collected,
			PaymentType:     method,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelSelected voids only the chosen lines, with no payment attached.
func (s *Service) CancelSelected(ctx context.Context, tenantID string, actor Actor, table int, lineIDs []string) ([]Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	var result []Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, table)
		if err != nil {
			return err
		}
		sel, err := newSelection(orders, lineIDs)
		if err != nil {
			return err
		}
		if sel.everything() {
			result, err = s.cancelOrders(ctx, tx, tenantID, actor, table, orders)
			return err
		}
		changed, cancelled, err := s.closeSelected(ctx, tx, tenantID, orders, sel, Cancelled, nil, 0)
		if err != nil {
			return err
		}
		entry := withAmount(logEntry(table, actor, activity.ActionOrdersCancelled, describeItems(cancelled)), SumItems(cancelled))
		if err := tx.AppendActivity(ctx, tenantID, entry); err != nil {
			return err
		}
		result = changed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
