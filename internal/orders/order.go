package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Disposition is the single lifecycle state of an order. The first three are
// open; the rest are terminal and record how the order ended.
type Disposition string

const (
	Waiting     Disposition = "waiting"
	Preparing   Disposition = "preparing"
	Ready       Disposition = "ready"
	Paid        Disposition = "paid"
	Cancelled   Disposition = "cancelled"
	OnAccount   Disposition = "account"
	Transferred Disposition = "transferred"
)

const (
	statusPaid     = "paid"
	paymentPending = "pending"
)

func (d Disposition) Open() bool {
	switch d {
	case Waiting, Preparing, Ready:
		return true
	}
	return false
}

func (d Disposition) Valid() bool {
	switch d {
	case Waiting, Preparing, Ready, Paid, Cancelled, OnAccount, Transferred:
		return true
	}
	return false
}

// Status is the wire/storage status column.
func (d Disposition) Status() string {
	if d.Open() {
		return string(d)
	}
	return statusPaid
}

// PaymentStatus is the wire/storage payment_status column.
func (d Disposition) PaymentStatus() string {
	if d.Open() {
		return paymentPending
	}
	return string(d)
}

// DispositionFrom reads a stored status pair. Combinations that cannot be
// produced by Status/PaymentStatus are rejected.
func DispositionFrom(status, paymentStatus string) (Disposition, error) {
	if status == statusPaid {
		d := Disposition(paymentStatus)
		if d.Valid() && !d.Open() {
			return d, nil
		}
		return "", fmt.Errorf("invalid order state %s/%s", status, paymentStatus)
	}
	d := Disposition(status)
	if d.Open() && paymentStatus == paymentPending {
		return d, nil
	}
	return "", fmt.Errorf("invalid order state %s/%s", status, paymentStatus)
}

// urgency ranks open dispositions for table badges; lower is more urgent.
func (d Disposition) urgency() int {
	switch d {
	case Waiting:
		return 0
	case Preparing:
		return 1
	case Ready:
		return 2
	}
	return 3
}

const (
	PaymentCash = "cash"
	PaymentCard = "card"
	PaymentPOS  = "pos"
	PaymentCari = "cari"
)

var paymentTypes = map[string]string{
	PaymentCash: "Cash",
	PaymentCard: "Card",
	PaymentPOS:  "POS",
	PaymentCari: "Account",
}

func ValidPaymentType(t string) bool {
	_, ok := paymentTypes[t]
	return ok
}

func PaymentLabel(t string) string {
	if l, ok := paymentTypes[t]; ok {
		return l
	}
	return t
}

type Item struct {
	LineID    string          `json:"lineId"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Note      string          `json:"note,omitempty"`
	Options   []string        `json:"options,omitempty"`
}

// Adjustment reports whether the line is an order-level service charge or
// points discount rather than a product.
func (i Item) Adjustment() bool {
	return i.ProductID == ""
}

func (i Item) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Label renders "Name xQty" with options and note, as used in activity
// details.
func (i Item) Label() string {
	s := fmt.Sprintf("%s x%d", i.Name, i.Quantity)
	if len(i.Options) > 0 {
		s += " (" + strings.Join(i.Options, ", ") + ")"
	}
	return s
}

func SumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount())
	}
	return total.Round(2)
}

func describeItems(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Label())
	}
	return strings.Join(parts, ", ")
}

type Order struct {
	ID          string
	UserID      string
	DisplayName string
	TableNumber int
	Items       []Item
	Total       decimal.Decimal
	Disposition Disposition
	PaymentType *string
	Collected   *decimal.Decimal // money taken when paid, after any discount
	Note        string
	Version     int
	ClosedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetItems replaces the item list and recomputes the total from it.
func (o *Order) SetItems(items []Item) {
	o.Items = items
	o.Total = SumItems(items)
}

// HasProducts reports whether any line other than an adjustment is left.
func HasProducts(items []Item) bool {
	for _, it := range items {
		if !it.Adjustment() {
			return true
		}
	}
	return false
}

// clampAdjustments shrinks negative adjustment lines, last first, until the
// items no longer sum below zero. Lines shrunk to nothing are dropped.
func clampAdjustments(items []Item) []Item {
	excess := SumItems(items).Neg()
	if !excess.IsPositive() {
		return items
	}
	out := append([]Item(nil), items...)
	for i := len(out) - 1; i >= 0 && excess.IsPositive(); i-- {
		amount := out[i].Amount()
		if !out[i].Adjustment() || !amount.IsNegative() || out[i].Quantity != 1 {
			continue
		}
		take := decimal.Min(excess, amount.Neg())
		out[i].Price = out[i].Price.Add(take)
		excess = excess.Sub(take)
	}
	kept := out[:0]
	for _, it := range out {
		if it.Adjustment() && it.Price.IsZero() {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

// CollectedAmount is what a closed order brought in: Collected when recorded,
// otherwise the undiscounted total.
func (o Order) CollectedAmount() decimal.Decimal {
	if o.Collected != nil {
		return *o.Collected
	}
	return o.Total
}

func (o *Order) close(d Disposition, paymentType *string, at time.Time) {
	o.Disposition = d
	o.PaymentType = paymentType
	o.ClosedAt = &at
}

func (o Order) ShortID() string {
	return ShortID(o.ID)
}

func ShortID(id string) string {
	if len(id) > 6 {
		id = id[:6]
	}
	return strings.ToUpper(id)
}

type orderJSON struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	DisplayName   string           `json:"displayName"`
	TableNumber   int              `json:"tableNumber"`
	Items         []Item           `json:"items"`
	Total         decimal.Decimal  `json:"total"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"paymentStatus"`
	PaymentType   *string          `json:"paymentType"`
	Collected     *decimal.Decimal `json:"collected,omitempty"`
	Note          string           `json:"note"`
	Version       int              `json:"version"`
	ClosedAt      *time.Time       `json:"closedAt"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	items := o.Items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(orderJSON{
		ID:            o.ID,
		UserID:        o.UserID,
		DisplayName:   o.DisplayName,
		TableNumber:   o.TableNumber,
		Items:         items,
		Total:         o.Total,
		Status:        o.Disposition.Status(),
		PaymentStatus: o.Disposition.PaymentStatus(),
		PaymentType:   o.PaymentType,
		Collected:     o.Collected,
		Note:          o.Note,
		Version:       o.Version,
		ClosedAt:      o.ClosedAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	})
}
