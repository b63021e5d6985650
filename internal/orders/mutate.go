package orders

import (
	"context"
	"fmt"
	"strings"

	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/cart"

	"github.com/shopspring/decimal"
)

// LineRef addresses one item of a table's tab. Version, when non-zero, is the
// order version the caller last saw.
type LineRef struct {
	LineID  string
	Version int
}

func locate(orders []Order, lineID string) (int, int, bool) {
	for oi := range orders {
		for ii := range orders[oi].Items {
			if orders[oi].Items[ii].LineID == lineID {
				return oi, ii, true
			}
		}
	}
	return -1, -1, false
}

func checkVersion(o Order, expected int) error {
	if expected != 0 && expected != o.Version {
		return apperr.Conflict("ORDER_CHANGED", "The order was changed by someone else; reload and try again").
			WithDetails(map[string]any{"orderId": o.ID, "version": o.Version})
	}
	return nil
}

func errAdjustmentLine(lineID string) error {
	return apperr.Validation("ADJUSTMENT_LINE", "Service charge and points discount follow their order").
		WithDetails(map[string]any{"lineId": lineID})
}

func withoutIndex(items []Item, idx int) []Item {
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

// CancelItem removes one product line from its order. When no product is left
// the whole order is cancelled instead, keeping its lines as the record.
func (s *Service) CancelItem(ctx context.Context, tenantID string, actor Actor, table int, ref LineRef) (*Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	var result *Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, table)
		if err != nil {
			return err
		}
		o, err := s.cancelLine(ctx, tx, tenantID, actor, orders, ref)
		result = o
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) cancelLine(ctx context.Context, tx Store, tenantID string, actor Actor, orders []Order, ref LineRef) (*Order, error) {
	oi, ii, ok := locate(orders, ref.LineID)
	if !ok {
		return nil, apperr.NotFound("LINE_NOT_FOUND", "Item is no longer on this table")
	}
	o := orders[oi]
	if err := checkVersion(o, ref.Version); err != nil {
		return nil, err
	}
	item := o.Items[ii]
	if item.Adjustment() {
		return nil, errAdjustmentLine(item.LineID)
	}

	rest := withoutIndex(o.Items, ii)
	if HasProducts(rest) {
		o.SetItems(clampAdjustments(rest))
	} else {
		o.close(Cancelled, nil, s.now())
	}
	if err := tx.Update(ctx, tenantID, &o); err != nil {
		return nil, err
	}
	entry := withAmount(logEntry(o.TableNumber, actor, activity.ActionItemCancelled, item.Label()), item.Amount())
	if err := tx.AppendActivity(ctx, tenantID, entry); err != nil {
		return nil, err
	}
	return &o, nil
}

type ItemEdit struct {
	LineRef
	Quantity int
	Note     string
}

// EditItem sets a line's quantity and note. Quantity zero or below cancels the
// line. A quantity change sends an addendum with only the difference to the
// printer.
func (s *Service) EditItem(ctx context.Context, tenantID string, actor Actor, table int, edit ItemEdit) (*Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if edit.Quantity <= 0 {
		return s.CancelItem(ctx, tenantID, actor, table, edit.LineRef)
	}
	if edit.Quantity > cart.MaxLineQuantity {
		return nil, apperr.Validation("INVALID_QUANTITY", fmt.Sprintf("Quantity must be between 1 and %d", cart.MaxLineQuantity))
	}

	var (
		result *Order
		delta  int
		edited Item
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, table)
		if err != nil {
			return err
		}
		oi, ii, ok := locate(orders, edit.LineID)
		if !ok {
			return apperr.NotFound("LINE_NOT_FOUND", "Item is no longer on this table")
		}
		o := orders[oi]
		if err := checkVersion(o, edit.Version); err != nil {
			return err
		}

		if o.Items[ii].Adjustment() {
			return errAdjustmentLine(edit.LineID)
		}

		items := append([]Item(nil), o.Items...)
		previous := items[ii]
		delta = edit.Quantity - previous.Quantity
		items[ii].Quantity = edit.Quantity
		items[ii].Note = strings.TrimSpace(edit.Note)
		edited = items[ii]
		o.SetItems(clampAdjustments(items))
		if err := tx.Update(ctx, tenantID, &o); err != nil {
			return err
		}

		var entry activity.Entry
		switch {
		case delta > 0:
			entry = logEntry(o.TableNumber, actor, activity.ActionItemIncreased, fmt.Sprintf("%s %d → %d", previous.Name, previous.Quantity, edit.Quantity))
			entry = withAmount(entry, previous.Price.Mul(decimal.NewFromInt(int64(delta))))
		case delta < 0:
			entry = logEntry(o.TableNumber, actor, activity.ActionItemReduced, fmt.Sprintf("%s %d → %d", previous.Name, previous.Quantity, edit.Quantity))
			entry = withAmount(entry, previous.Price.Mul(decimal.NewFromInt(int64(-delta))))
		default:
			entry = logEntry(o.TableNumber, actor, activity.ActionItemEdited, fmt.Sprintf("%s note: %s", previous.Name, edited.Note))
		}
		if err := tx.AppendActivity(ctx, tenantID, entry); err != nil {
			return err
		}
		result = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if delta != 0 {
		addendum := edited
		addendum.Quantity = delta
		s.printer.Addendum(tenantID, *result, []Item{addendum})
	}
	return result, nil
}

// CancelAll cancels every open order on the table with one activity entry.
func (s *Service) CancelAll(ctx context.Context, tenantID string, actor Actor, table int) ([]Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	var result []Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, table)
		if err != nil {
			return err
		}
		result, err = s.cancelOrders(ctx, tx, tenantID, actor, table, orders)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) cancelOrders(ctx context.Context, tx Store, tenantID string, actor Actor, table int, orders []Order) ([]Order, error) {
	now := s.now()
	for i := range orders {
		orders[i].close(Cancelled, nil, now)
		if err := tx.Update(ctx, tenantID, &orders[i]); err != nil {
			return nil, err
		}
	}
	entry := withAmount(logEntry(table, actor, activity.ActionOrdersCancelled, describeItems(allItems(orders))), tableTotal(orders))
	if err := tx.AppendActivity(ctx, tenantID, entry); err != nil {
		return nil, err
	}
	return orders, nil
}
