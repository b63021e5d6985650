package cart

import (
	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerCart is the customer-side cart: one line per product, no notes or
// options, repeated adds increment the existing line.
type CustomerCart struct {
	lines []*Line
}

func NewCustomerCart() *CustomerCart {
	return &CustomerCart{}
}

func (c *CustomerCart) Add(p catalog.Product) *Line {
	for _, l := range c.lines {
		if l.ProductID == p.ID {
			l.Quantity++
			return l
		}
	}
	line := &Line{
		LineID:      uuid.NewString(),
		ProductID:   p.ID,
		Name:        p.Name,
		BasePrice:   p.Price,
		Quantity:    1,
		Options:     make([]SelectedOption, 0),
		ExtraCharge: decimal.Zero,
	}
	c.lines = append(c.lines, line)
	return line
}

func (c *CustomerCart) ChangeQuantity(productID string, delta int) error {
	for i, l := range c.lines {
		if l.ProductID != productID {
			continue
		}
		l.Quantity += delta
		if l.Quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return nil
	}
	return apperr.NotFound("LINE_NOT_FOUND", "Product is not in the cart")
}

func (c *CustomerCart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Amount())
	}
	return total
}

func (c *CustomerCart) Lines() []Line {
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	return out
}

func (c *CustomerCart) Len() int {
	return len(c.lines)
}

func (c *CustomerCart) Clear() {
	c.lines = nil
}
