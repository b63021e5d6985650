package cart

import (
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SelectedOption struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ExtraPrice decimal.Decimal `json:"extraPrice"`
}

// Line is one not-yet-submitted selection. ExtraCharge is always the sum of
// the selected options' extra prices.
type Line struct {
	LineID      string           `json:"lineId"`
	ProductID   string           `json:"productId"`
	Name        string           `json:"name"`
	BasePrice   decimal.Decimal  `json:"basePrice"`
	Quantity    int              `json:"quantity"`
	Note        string           `json:"note"`
	Options     []SelectedOption `json:"options"`
	ExtraCharge decimal.Decimal  `json:"extraCharge"`
}

func (l Line) UnitPrice() decimal.Decimal {
	return l.BasePrice.Add(l.ExtraCharge)
}

func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) OptionNames() []string {
	names := make([]string, 0, len(l.Options))
	for _, o := range l.Options {
		names = append(names, o.Name)
	}
	return names
}

func (l *Line) recomputeExtra() {
	extra := decimal.Zero
	for _, o := range l.Options {
		extra = extra.Add(o.ExtraPrice)
	}
	l.ExtraCharge = extra
}

// Draft is the staff-side pending item list of one table-detail view. Every
// add creates a new line so that each can carry its own note and options.
type Draft struct {
	lines []*Line
}

func NewDraft() *Draft {
	return &Draft{}
}

func (d *Draft) AddProduct(p catalog.Product) *Line {
	line := &Line{
		LineID:      uuid.NewString(),
		ProductID:   p.ID,
		Name:        p.Name,
		BasePrice:   p.Price,
		Quantity:    1,
		Options:     make([]SelectedOption, 0),
		ExtraCharge: decimal.Zero,
	}
	d.lines = append(d.lines, line)
	return line
}

func (d *Draft) find(lineID string) (int, *Line) {
	for i, l := range d.lines {
		if l.LineID == lineID {
			return i, l
		}
	}
	return -1, nil
}

// ChangeQuantity clamps at zero; a line that reaches zero is removed.
func (d *Draft) ChangeQuantity(lineID string, delta int) error {
	i, line := d.find(lineID)
	if line == nil {
		return apperr.NotFound("LINE_NOT_FOUND", "Draft line not found")
	}
	line.Quantity += delta
	if line.Quantity <= 0 {
		d.lines = append(d.lines[:i], d.lines[i+1:]...)
	}
	return nil
}

func (d *Draft) ToggleOption(lineID string, option catalog.Option) error {
	_, line := d.find(lineID)
	if line == nil {
		return apperr.NotFound("LINE_NOT_FOUND", "Draft line not found")
	}
	if option.ProductID != "" && option.ProductID != line.ProductID {
		return apperr.Validation("OPTION_NOT_APPLICABLE", "Option does not belong to this product")
	}
	for i, o := range line.Options {
		if o.ID == option.ID {
			line.Options = append(line.Options[:i], line.Options[i+1:]...)
			line.recomputeExtra()
			return nil
		}
	}
	line.Options = append(line.Options, SelectedOption{ID: option.ID, Name: option.Name, ExtraPrice: option.ExtraPrice})
	line.recomputeExtra()
	return nil
}

func (d *Draft) SetNote(lineID, note string) error {
	_, line := d.find(lineID)
	if line == nil {
		return apperr.NotFound("LINE_NOT_FOUND", "Draft line not found")
	}
	line.Note = strings.TrimSpace(note)
	return nil
}

func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.lines {
		total = total.Add(l.Amount())
	}
	return total
}

func (d *Draft) Lines() []Line {
	out := make([]Line, 0, len(d.lines))
	for _, l := range d.lines {
		cp := *l
		cp.Options = append([]SelectedOption(nil), l.Options...)
		out = append(out, cp)
	}
	return out
}

func (d *Draft) Len() int {
	return len(d.lines)
}

func (d *Draft) Clear() {
	d.lines = nil
}
