package orders

import (
	"context"
	"strings"

	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/cart"
	"tableside-order-services/internal/loyalty"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Basket is either cart flavour: the staff draft or the customer cart.
type Basket interface {
	Lines() []cart.Line
	Len() int
	Clear()
}

const (
	ServiceChargeName   = "Service charge"
	PointsDiscountName  = "Points discount"
	QuickOrderTable     = 0
	maxTableNumber      = 9999
	maxDisplayNameRunes = 100
)

// ItemsFromLines freezes draft lines into order items at their effective unit
// price (base plus option extras).
func ItemsFromLines(lines []cart.Line) []Item {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			LineID:    l.LineID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice().Round(2),
			Quantity:  l.Quantity,
			Note:      l.Note,
			Options:   l.OptionNames(),
		})
	}
	return items
}

type StaffOrder struct {
	Table       int
	DisplayName string
	Note        string
}

// Submit persists a staff-entered order from the draft. The draft is cleared
// only when the order and its activity entry are committed.
func (s *Service) Submit(ctx context.Context, tenantID string, actor Actor, in StaffOrder, draft Basket) (*Order, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if draft == nil || draft.Len() == 0 {
		return nil, apperr.Validation("EMPTY_CART", "Add at least one item")
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, apperr.Validation("DISPLAY_NAME_REQUIRED", "Responsible name is required")
	}
	if len([]rune(name)) > maxDisplayNameRunes {
		return nil, apperr.Validation("VALIDATION_ERROR", "Responsible name is too long")
	}
	if in.Table < QuickOrderTable || in.Table > maxTableNumber {
		return nil, apperr.Validation("INVALID_TABLE", "Table number is not valid")
	}

	o := &Order{
		ID:          s.newID(),
		UserID:      actor.UserID,
		DisplayName: name,
		TableNumber: in.Table,
		Disposition: Preparing,
		Note:        strings.TrimSpace(in.Note),
	}
	o.SetItems(ItemsFromLines(draft.Lines()))

	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Insert(ctx, tenantID, o); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, tenantID, withAmount(logEntry(o.TableNumber, actor, activity.ActionOrderAdded, describeItems(o.Items)), o.Total))
	})
	if err != nil {
		return nil, err
	}

	draft.Clear()
	s.logger.Info("order submitted",
		zap.String("tenantId", tenantID),
		zap.String("orderId", o.ID),
		zap.Int("table", o.TableNumber),
		zap.String("total", o.Total.StringFixed(2)),
	)
	s.printer.OrderPlaced(tenantID, *o)
	return o, nil
}

type CustomerOrder struct {
	Table                int
	CustomerName         string
	Note                 string
	Member               *loyalty.Member
	Redeem               bool
	ServiceChargePercent decimal.Decimal
	Rates                loyalty.Rates
}

type Checkout struct {
	Order         *Order          `json:"order"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Quote         loyalty.Quote   `json:"loyalty"`
}

// PriceCheckout computes the service charge and loyalty quote for a basket
// total without writing anything.
func PriceCheckout(subtotal decimal.Decimal, in CustomerOrder) (decimal.Decimal, loyalty.Quote) {
	charge := decimal.Zero
	if in.ServiceChargePercent.IsPositive() {
		charge = subtotal.Mul(in.ServiceChargePercent).Div(decimal.NewFromInt(100)).Round(2)
	}
	total := subtotal.Add(charge)
	if in.Member == nil {
		return charge, loyalty.Quote{Subtotal: total, Discount: decimal.Zero, Charged: total}
	}
	return charge, in.Rates.Compute(total, in.Member.AvailablePoints(), in.Redeem)
}

// PlaceCustomerOrder persists a customer checkout. The service charge and any
// points discount become their own item lines so the order total stays the
// sum of its items.
func (s *Service) PlaceCustomerOrder(ctx context.Context, tenantID string, actor Actor, in CustomerOrder, basket Basket) (*Checkout, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if basket == nil || basket.Len() == 0 {
		return nil, apperr.Validation("EMPTY_CART", "Add at least one item")
	}
	if in.Table <= QuickOrderTable || in.Table > maxTableNumber {
		return nil, apperr.Validation("INVALID_TABLE", "Table number is not valid")
	}
	name := strings.TrimSpace(in.CustomerName)
	if name == "" && in.Member != nil {
		name = in.Member.Name
	}
	if name == "" {
		return nil, apperr.Validation("DISPLAY_NAME_REQUIRED", "Name is required")
	}

	items := ItemsFromLines(basket.Lines())
	charge, quote := PriceCheckout(SumItems(items), in)
	if charge.IsPositive() {
		items = append(items, Item{LineID: s.newID(), Name: ServiceChargeName, Price: charge, Quantity: 1})
	}
	if quote.Redeemed {
		items = append(items, Item{LineID: s.newID(), Name: PointsDiscountName, Price: quote.Discount.Neg(), Quantity: 1})
	}

	o := &Order{
		ID:          s.newID(),
		UserID:      actor.UserID,
		DisplayName: name,
		TableNumber: in.Table,
		Disposition: Waiting,
		Note:        strings.TrimSpace(in.Note),
	}
	o.SetItems(items)

	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Insert(ctx, tenantID, o); err != nil {
			return err
		}
		if in.Member != nil {
			if err := tx.PostLoyalty(ctx, tenantID, in.Member.ID, loyalty.CheckoutPosting(quote, o.ID)); err != nil {
				return err
			}
		}
		entry := logEntry(o.TableNumber, Actor{Name: name}, activity.ActionOrderAdded, describeItems(o.Items))
		return tx.AppendActivity(ctx, tenantID, withAmount(entry, o.Total))
	})
	if err != nil {
		return nil, err
	}

	basket.Clear()
	fields := []zap.Field{zap.String("tenantId", tenantID), zap.String("orderId", o.ID), zap.Int("table", o.TableNumber)}
	if in.Member != nil {
		fields = append(fields, zap.String("memberId", in.Member.ID), zap.Int("pointsSpent", quote.PointCost), zap.Int("pointsEarned", quote.EarnPoints))
	}
	s.logger.Info("customer order placed", fields...)
	s.printer.OrderPlaced(tenantID, *o)
	return &Checkout{Order: o, ServiceCharge: charge, Quote: quote}, nil
}
