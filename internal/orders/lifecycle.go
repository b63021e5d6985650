package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

// ParseOpenDisposition accepts only the open states a staff member may set
// directly.
func ParseOpenDisposition(raw string) (Disposition, error) {
	d := Disposition(raw)
	if !d.Open() {
		return "", apperr.Validation("INVALID_STATUS", "Status must be waiting, preparing or ready")
	}
	return d, nil
}

// UpdateStatus moves an open order between waiting, preparing and ready.
// Closed orders only come back through ReopenTable.
func (s *Service) UpdateStatus(ctx context.Context, tenantID string, actor Actor, orderID string, to Disposition, version int) (*Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if !to.Open() {
		return nil, apperr.Validation("INVALID_STATUS", "Status must be waiting, preparing or ready")
	}
	var result *Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		o, err := tx.Get(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if !o.Disposition.Open() {
			return apperr.Conflict("ORDER_CLOSED", "Order is already closed")
		}
		if err := checkVersion(*o, version); err != nil {
			return err
		}
		o.Disposition = to
		if err := tx.Update(ctx, tenantID, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reversal takes amount back out of the revenue booked under paymentType.
func reversal(table int, actor Actor, detail, paymentType string, amount decimal.Decimal) activity.Entry {
	e := withAmount(logEntry(table, actor, activity.ActionPaymentReversed, detail), amount.Neg())
	if paymentType != "" {
		e = withPayment(e, paymentType)
	}
	return e
}

// ChangePaymentType corrects the method recorded on a paid order. The
// collected amount moves from the old method to the new one in the log.
func (s *Service) ChangePaymentType(ctx context.Context, tenantID string, actor Actor, orderID, paymentType string, version int) (*Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if !ValidPaymentType(paymentType) || paymentType == PaymentCari {
		return nil, apperr.Validation("INVALID_PAYMENT_TYPE", "Payment type is not valid")
	}
	var result *Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		o, err := tx.Get(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if o.Disposition != Paid {
			return apperr.Conflict("ORDER_NOT_PAID", "Only paid orders have a payment type to change")
		}
		if err := checkVersion(*o, version); err != nil {
			return err
		}
		previous := ""
		if o.PaymentType != nil {
			previous = *o.PaymentType
		}
		if previous == paymentType {
			result = o
			return nil
		}
		method := paymentType
		o.PaymentType = &method
		if err := tx.Update(ctx, tenantID, o); err != nil {
			return err
		}
		detail := fmt.Sprintf("#%s %s → %s", o.ShortID(), PaymentLabel(previous), PaymentLabel(paymentType))
		amount := o.CollectedAmount()
		if err := tx.AppendActivity(ctx, tenantID, reversal(o.TableNumber, actor, detail, previous, amount)); err != nil {
			return err
		}
		entry := withPayment(withAmount(logEntry(o.TableNumber, actor, activity.ActionPaymentTypeChanged, detail), amount), method)
		if err := tx.AppendActivity(ctx, tenantID, entry); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReopenTable brings back the table's orders that were paid or cancelled
// since the given instant. Orders moved to an account or to another table
// stay closed: their ledger or sibling order already carries them. Money
// collected for the reopened orders is reversed per payment method, so a
// second settlement is not counted twice.
func (s *Service) ReopenTable(ctx context.Context, tenantID string, actor Actor, table int, since time.Time) ([]Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if table == QuickOrderTable {
		return nil, apperr.Validation("INVALID_TABLE", "Quick orders cannot be reopened")
	}
	var result []Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		closed, err := tx.ListClosedSince(ctx, tenantID, since)
		if err != nil {
			return err
		}
		refunds := make(map[string]decimal.Decimal)
		for _, o := range closed {
			if o.TableNumber != table || (o.Disposition != Paid && o.Disposition != Cancelled) {
				continue
			}
			if o.Disposition == Paid {
				method := ""
				if o.PaymentType != nil {
					method = *o.PaymentType
				}
				refunds[method] = refunds[method].Add(o.CollectedAmount())
			}
			o.Disposition = Preparing
			o.PaymentType = nil
			o.Collected = nil
			o.ClosedAt = nil
			if err := tx.Update(ctx, tenantID, &o); err != nil {
				return err
			}
			result = append(result, o)
		}
		if len(result) == 0 {
			return apperr.NotFound("NOTHING_TO_REOPEN", "No orders closed today on this table")
		}
		methods := make([]string, 0, len(refunds))
		for method := range refunds {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			detail := fmt.Sprintf("Table %d reopened", table)
			if err := tx.AppendActivity(ctx, tenantID, reversal(table, actor, detail, method, refunds[method])); err != nil {
				return err
			}
		}
		entry := logEntry(table, actor, activity.ActionTableReopened, fmt.Sprintf("Table %d reopened", table))
		return tx.AppendActivity(ctx, tenantID, withAmount(entry, tableTotal(result)))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
