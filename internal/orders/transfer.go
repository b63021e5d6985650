package orders

import (
	"context"
	"fmt"

	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

func validateDestination(from, to int) error {
	if to <= QuickOrderTable || to > maxTableNumber {
		return apperr.Validation("INVALID_TABLE", "Destination table is not valid")
	}
	if to == from {
		return apperr.Validation("SAME_TABLE", "Destination must be a different table")
	}
	return nil
}

// TransferTable re-points every open order of from to to. No orders are
// created or closed.
func (s *Service) TransferTable(ctx context.Context, tenantID string, actor Actor, from, to int) ([]Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if err := validateDestination(from, to); err != nil {
		return nil, err
	}
	var result []Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, from)
		if err != nil {
			return err
		}
		result, err = s.moveOrders(ctx, tx, tenantID, actor, from, to, orders)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) moveOrders(ctx context.Context, tx Store, tenantID string, actor Actor, from, to int, orders []Order) ([]Order, error) {
	for i := range orders {
		orders[i].TableNumber = to
		if err := tx.Update(ctx, tenantID, &orders[i]); err != nil {
			return nil, err
		}
	}
	entry := logEntry(from, actor, activity.ActionTableMoved, fmt.Sprintf("Table %d → Table %d", from, to))
	if err := tx.AppendActivity(ctx, tenantID, withAmount(entry, tableTotal(orders))); err != nil {
		return nil, err
	}
	return orders, nil
}

// TransferItems moves the chosen lines to another table. Each source order
// that gives up lines gets a sibling order at the destination holding exactly
// those lines; a source order left empty ends as transferred.
func (s *Service) TransferItems(ctx context.Context, tenantID string, actor Actor, from, to int, lineIDs []string) ([]Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if err := validateDestination(from, to); err != nil {
		return nil, err
	}
	var created []Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, from)
		if err != nil {
			return err
		}
		sel, err := newSelection(orders, lineIDs)
		if err != nil {
			return err
		}
		if sel.everything() {
			created, err = s.moveOrders(ctx, tx, tenantID, actor, from, to, orders)
			return err
		}

		now := s.now()
		moved := make([]Item, 0)
		for i := range orders {
			picked, rest := sel.split(orders[i])
			if len(picked) == 0 {
				continue
			}
			source := orders[i]
			sibling := &Order{
				ID:          s.newID(),
				UserID:      source.UserID,
				DisplayName: source.DisplayName,
				TableNumber: to,
				Disposition: source.Disposition,
				PaymentType: source.PaymentType,
				Note:        source.Note,
			}
			sibling.SetItems(picked)
			if err := tx.Insert(ctx, tenantID, sibling); err != nil {
				return err
			}
			created = append(created, *sibling)
			moved = append(moved, picked...)

			if len(rest) == 0 {
				source.close(Transferred, source.PaymentType, now)
			} else {
				source.SetItems(rest)
			}
			if err := tx.Update(ctx, tenantID, &source); err != nil {
				return err
			}
		}

		detail := fmt.Sprintf("Table %d → Table %d: %s", from, to, describeItems(moved))
		return tx.AppendActivity(ctx, tenantID, withAmount(logEntry(from, actor, activity.ActionItemsMoved, detail), SumItems(moved)))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type AccountTransfer struct {
	Table       int             `json:"table"`
	AccountID   string          `json:"accountId"`
	AccountName string          `json:"accountName"`
	Orders      []Order         `json:"orders"`
	Amount      decimal.Decimal `json:"amount"`
}

// TransferToAccount books the table's full total as debt on a running account
// and closes its orders as on-account, all in one transaction.
func (s *Service) TransferToAccount(ctx context.Context, tenantID string, actor Actor, table int, accountID string) (*AccountTransfer, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if accountID == "" {
		return nil, apperr.Validation("ACCOUNT_REQUIRED", "Choose an account")
	}
	var result *AccountTransfer
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		orders, err := s.openTableOrders(ctx, tx, tenantID, table)
		if err != nil {
			return err
		}
		total := tableTotal(orders).Round(2)
		if !total.IsPositive() {
			return apperr.Validation("NOTHING_TO_TRANSFER", "Table total must be greater than zero")
		}
		acc, err := tx.PostAccountDebt(ctx, tenantID, accountID, total, table, fmt.Sprintf("Table %d", table))
		if err != nil {
			return err
		}

		now := s.now()
		method := PaymentCari
		for i := range orders {
			orders[i].close(OnAccount, &method, now)
			if err := tx.Update(ctx, tenantID, &orders[i]); err != nil {
				return err
			}
		}
		entry := logEntry(table, actor, activity.ActionMovedToAccount, fmt.Sprintf("→ %s", acc.Name))
		if err := tx.AppendActivity(ctx, tenantID, withPayment(withAmount(entry, total), method)); err != nil {
			return err
		}
		result = &AccountTransfer{
			Table:       table,
			AccountID:   acc.ID,
			AccountName: acc.Name,
			Orders:      orders,
			Amount:      total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
