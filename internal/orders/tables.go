package orders

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Table is the derived view of one open tab. It is recomputed from the
// current open orders on every change; nothing about it is stored.
type Table struct {
	Number    int             `json:"number"`
	Orders    []Order         `json:"orders"`
	Total     decimal.Decimal `json:"total"`
	Badge     Disposition     `json:"badge"`
	ItemCount int             `json:"itemCount"`
	OpenedAt  time.Time       `json:"openedAt"`
}

// Aggregate groups open orders by table number. Quick orders (table 0) and
// closed orders are left out. Tables are sorted by number.
func Aggregate(orders []Order) []Table {
	byNumber := make(map[int]*Table)
	for _, o := range orders {
		if !o.Disposition.Open() || o.TableNumber == QuickOrderTable {
			continue
		}
		t, ok := byNumber[o.TableNumber]
		if !ok {
			t = &Table{Number: o.TableNumber, Total: decimal.Zero, Badge: Ready, OpenedAt: o.CreatedAt}
			byNumber[o.TableNumber] = t
		}
		t.Orders = append(t.Orders, o)
		t.Total = t.Total.Add(o.Total)
		if o.Disposition.urgency() < t.Badge.urgency() {
			t.Badge = o.Disposition
		}
		for _, it := range o.Items {
			t.ItemCount += it.Quantity
		}
		if o.CreatedAt.Before(t.OpenedAt) {
			t.OpenedAt = o.CreatedAt
		}
	}

	out := make([]Table, 0, len(byNumber))
	for _, t := range byNumber {
		sort.SliceStable(t.Orders, func(i, j int) bool { return t.Orders[i].CreatedAt.Before(t.Orders[j].CreatedAt) })
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *Service) OpenTables(ctx context.Context, tenantID string) ([]Table, error) {
	orders, err := s.store.ListOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return Aggregate(orders), nil
}

// TableDetail returns the tab of one table; a table with no open orders comes
// back empty rather than as an error.
func (s *Service) TableDetail(ctx context.Context, tenantID string, number int) (Table, error) {
	orders, err := s.store.ListOpenByTable(ctx, tenantID, number)
	if err != nil {
		return Table{}, err
	}
	tables := Aggregate(orders)
	if len(tables) == 0 {
		return Table{Number: number, Orders: []Order{}, Total: decimal.Zero}, nil
	}
	return tables[0], nil
}

type ClosedTable struct {
	Number     int             `json:"number"`
	OrderCount int             `json:"orderCount"`
	Total      decimal.Decimal `json:"total"`
	ClosedAt   time.Time       `json:"closedAt"`
	Outcomes   []Disposition   `json:"outcomes"`
}

// ClosedTablesToday lists tables whose orders were closed since since
// (normally local midnight) and that are not open again. Quick orders are
// excluded.
func (s *Service) ClosedTablesToday(ctx context.Context, tenantID string, since time.Time) ([]ClosedTable, error) {
	closed, err := s.store.ListClosedSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	open, err := s.store.ListOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	openNow := make(map[int]bool)
	for _, o := range open {
		openNow[o.TableNumber] = true
	}

	byNumber := make(map[int]*ClosedTable)
	for _, o := range closed {
		if o.TableNumber == QuickOrderTable || openNow[o.TableNumber] || o.Disposition == Transferred {
			continue
		}
		t, ok := byNumber[o.TableNumber]
		if !ok {
			t = &ClosedTable{Number: o.TableNumber, Total: decimal.Zero}
			byNumber[o.TableNumber] = t
		}
		t.OrderCount++
		t.Total = t.Total.Add(o.Total)
		if o.ClosedAt != nil && o.ClosedAt.After(t.ClosedAt) {
			t.ClosedAt = *o.ClosedAt
		}
		if !containsDisposition(t.Outcomes, o.Disposition) {
			t.Outcomes = append(t.Outcomes, o.Disposition)
		}
	}

	out := make([]ClosedTable, 0, len(byNumber))
	for _, t := range byNumber {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.After(out[j].ClosedAt) })
	return out, nil
}

func containsDisposition(list []Disposition, d Disposition) bool {
	for _, v := range list {
		if v == d {
			return true
		}
	}
	return false
}
