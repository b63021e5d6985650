package orders

import (
	"context"
	"sort"
	"time"

	"tableside-order-services/internal/accounts"
	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/loyalty"

	"github.com/shopspring/decimal"
)

type debt struct {
	accountID string
	amount    decimal.Decimal
	table     int
}

type posting struct {
	memberID string
	posting  loyalty.Posting
}

// memStore keeps everything in maps. InTx snapshots the state and restores
// it when fn fails.
type memStore struct {
	orders   map[string]Order
	seq      int
	log      []activity.Entry
	accounts map[string]*accounts.Account
	debts    []debt
	postings []posting
	failOn   string
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[string]Order{},
		accounts: map[string]*accounts.Account{},
	}
}

func cloneOrder(o Order) Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	orders := make(map[string]Order, len(m.orders))
	for k, v := range m.orders {
		orders[k] = cloneOrder(v)
	}
	balances := make(map[string]decimal.Decimal, len(m.accounts))
	for k, v := range m.accounts {
		balances[k] = v.Balance
	}
	logLen, debtLen, postLen := len(m.log), len(m.debts), len(m.postings)

	if err := fn(ctx, m); err != nil {
		m.orders = orders
		for k, v := range balances {
			m.accounts[k].Balance = v
		}
		m.log, m.debts, m.postings = m.log[:logLen], m.debts[:debtLen], m.postings[:postLen]
		return err
	}
	return nil
}

func (m *memStore) sorted(keep func(Order) bool) []Order {
	out := make([]Order, 0)
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListOpen(context.Context, string) ([]Order, error) {
	return m.sorted(func(o Order) bool { return o.Disposition.Open() }), nil
}

func (m *memStore) ListOpenByTable(_ context.Context, _ string, table int) ([]Order, error) {
	return m.sorted(func(o Order) bool { return o.Disposition.Open() && o.TableNumber == table }), nil
}

func (m *memStore) ListClosedSince(_ context.Context, _ string, since time.Time) ([]Order, error) {
	return m.sorted(func(o Order) bool {
		return !o.Disposition.Open() && o.ClosedAt != nil && !o.ClosedAt.Before(since)
	}), nil
}

func (m *memStore) Get(_ context.Context, _ string, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("ORDER_NOT_FOUND", "Order not found")
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (m *memStore) Insert(_ context.Context, _ string, o *Order) error {
	m.seq++
	o.Version = 1
	o.CreatedAt = time.Date(2026, 1, 1, 12, 0, m.seq, 0, time.UTC)
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *memStore) Update(_ context.Context, _ string, o *Order) error {
	if m.failOn == o.ID {
		return apperr.Remote("Failed to update order", nil)
	}
	current, ok := m.orders[o.ID]
	if !ok || current.Version != o.Version {
		return apperr.Conflict("ORDER_CHANGED", "changed")
	}
	o.Version++
	m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *memStore) AppendActivity(_ context.Context, _ string, e activity.Entry) error {
	if !e.Action.Valid() {
		return apperr.Validation("INVALID_ACTION", "Unknown activity action")
	}
	m.log = append(m.log, e)
	return nil
}

func (m *memStore) PostAccountDebt(_ context.Context, _ string, accountID string, amount decimal.Decimal, table int, _ string) (*accounts.Account, error) {
	acc, ok := m.accounts[accountID]
	if !ok {
		return nil, apperr.NotFound("ACCOUNT_NOT_FOUND", "Account not found")
	}
	acc.Balance = acc.Balance.Add(amount)
	m.debts = append(m.debts, debt{accountID: accountID, amount: amount, table: table})
	cp := *acc
	return &cp, nil
}

func (m *memStore) PostLoyalty(_ context.Context, _ string, memberID string, p loyalty.Posting) error {
	m.postings = append(m.postings, posting{memberID: memberID, posting: p})
	return nil
}

type printCall struct {
	orderID string
	items   []Item
}

type recordingPrinter struct {
	placed   []printCall
	addendum []printCall
}

func (p *recordingPrinter) OrderPlaced(_ string, o Order) {
	p.placed = append(p.placed, printCall{orderID: o.ID, items: o.Items})
}

func (p *recordingPrinter) Addendum(_ string, o Order, delta []Item) {
	p.addendum = append(p.addendum, printCall{orderID: o.ID, items: delta})
}
