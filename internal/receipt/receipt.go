package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/tenant"

	"github.com/shopspring/decimal"
)

// Layout is the per-tenant paper configuration.
type Layout struct {
	PaperWidth int
	Columns    int
	Header     string
	Footer     string
	Currency   string
	Location   *time.Location
}

func LayoutFor(s tenant.Settings) Layout {
	l := Layout{
		PaperWidth: s.PaperWidth,
		Header:     s.ReceiptHeader,
		Footer:     s.ReceiptFooter,
		Currency:   s.Currency,
		Location:   s.Location(),
	}
	switch s.PaperWidth {
	case 58:
		l.Columns = 32
	default:
		l.PaperWidth = 80
		l.Columns = 48
	}
	return l
}

type Line struct {
	Name     string
	Quantity int
	Amount   decimal.Decimal
	Options  []string
	Note     string
}

type Receipt struct {
	ShortID     string
	Table       int
	DisplayName string
	At          time.Time
	Lines       []Line
	Total       decimal.Decimal
	Payment     string
	Note        string
	// Addendum marks a kitchen slip carrying only a quantity change.
	Addendum bool
}

func FromOrder(o orders.Order) Receipt {
	r := Receipt{
		ShortID:     o.ShortID(),
		Table:       o.TableNumber,
		DisplayName: o.DisplayName,
		At:          o.CreatedAt,
		Lines:       linesFrom(o.Items),
		Total:       o.Total,
		Note:        o.Note,
	}
	if o.PaymentType != nil {
		r.Payment = orders.PaymentLabel(*o.PaymentType)
	}
	return r
}

// Addendum builds a slip for delta only; quantities may be negative.
func Addendum(o orders.Order, delta []orders.Item, at time.Time) Receipt {
	return Receipt{
		ShortID:     o.ShortID(),
		Table:       o.TableNumber,
		DisplayName: o.DisplayName,
		At:          at,
		Lines:       linesFrom(delta),
		Total:       orders.SumItems(delta),
		Addendum:    true,
	}
}

func linesFrom(items []orders.Item) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			Name:     it.Name,
			Quantity: it.Quantity,
			Amount:   it.Amount().Round(2),
			Options:  it.Options,
			Note:     it.Note,
		})
	}
	return lines
}

func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (r Receipt) TableLabel() string {
	if r.Table == orders.QuickOrderTable {
		return "Quick order"
	}
	return fmt.Sprintf("Table %d", r.Table)
}

func (r Receipt) Title() string {
	if r.Addendum {
		return "ADDENDUM #" + r.ShortID
	}
	return "Order #" + r.ShortID
}

func (r Receipt) Timestamp(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return r.At.In(loc).Format("02.01.2006 15:04")
}

func (l Line) Label() string {
	return fmt.Sprintf("%s x%d", l.Name, l.Quantity)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runeLen(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "."
}

func center(s string, width int) string {
	s = truncate(s, width)
	pad := (width - runeLen(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// columns puts left and right on one line of the given width, truncating left
// when both do not fit.
func columns(left, right string, width int) string {
	room := width - runeLen(right) - 1
	left = truncate(left, room)
	gap := width - runeLen(left) - runeLen(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
