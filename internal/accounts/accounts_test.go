package accounts

import (
	"context"
	"testing"

	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

type memStore struct {
	accounts map[string]*Account
	ledger   []Transaction
}

func newMemStore() *memStore {
	return &memStore{accounts: map[string]*Account{}}
}

func (m *memStore) List(context.Context, string) ([]Account, error) {
	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, _ string, id string) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperr.NotFound("ACCOUNT_NOT_FOUND", "Account not found")
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Create(_ context.Context, _ string, a *Account) error {
	a.ID = "acc-" + a.Name
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, _ string, a *Account) error {
	existing, ok := m.accounts[a.ID]
	if !ok {
		return apperr.NotFound("ACCOUNT_NOT_FOUND", "Account not found")
	}
	existing.Name, existing.Phone, existing.Note = a.Name, a.Phone, a.Note
	return nil
}

func (m *memStore) Transactions(_ context.Context, _ string, accountID string) ([]Transaction, error) {
	out := make([]Transaction, 0)
	for _, t := range m.ledger {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) Post(_ context.Context, _ string, accountID string, e Entry) (*Account, error) {
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, apperr.NotFound("ACCOUNT_NOT_FOUND", "Account not found")
	}
	m.ledger = append(m.ledger, Transaction{AccountID: accountID, Type: e.Type, Amount: e.Amount, TableNumber: e.TableNumber})
	a.Balance = a.Balance.Add(e.delta())
	cp := *a
	return &cp, nil
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw     string
		want    string
		invalid bool
	}{
		{raw: "50", want: "50"},
		{raw: " 12,5 ", want: "12.5"},
		{raw: "10.005", want: "10.01"},
		{raw: "0", invalid: true},
		{raw: "-3", invalid: true},
		{raw: "abc", invalid: true},
		{raw: "", invalid: true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseAmount(tc.raw)
			if tc.invalid {
				if !apperr.Is(err, apperr.KindValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestBalanceMatchesLedger(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	acc, err := svc.Create(ctx, "t1", Account{Name: " Mehmet "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.Name != "Mehmet" {
		t.Fatalf("expected trimmed name, got %q", acc.Name)
	}

	table := 4
	if _, err := store.Post(ctx, "t1", acc.ID, Entry{Type: TypeDebt, Amount: decimal.NewFromInt(145), TableNumber: &table}); err != nil {
		t.Fatalf("debt: %v", err)
	}
	if _, err := svc.Collect(ctx, "t1", acc.ID, decimal.NewFromInt(100), ""); err != nil {
		t.Fatalf("collect: %v", err)
	}
	got, err := svc.Collect(ctx, "t1", acc.ID, decimal.NewFromInt(60), "cash")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(-15)) {
		t.Fatalf("expected overpayment to leave -15 credit, got %s", got.Balance)
	}

	txs, _ := svc.Transactions(ctx, "t1", acc.ID)
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Type == TypeDebt {
			sum = sum.Add(tx.Amount)
		} else {
			sum = sum.Sub(tx.Amount)
		}
	}
	if !sum.Equal(got.Balance) {
		t.Fatalf("balance %s disagrees with ledger %s", got.Balance, sum)
	}
}

func TestCollectRejectsNonPositiveWithoutWrite(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	acc, _ := svc.Create(context.Background(), "t1", Account{Name: "Ali"})

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		if _, err := svc.Collect(context.Background(), "t1", acc.ID, amount, ""); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %s, got %v", amount, err)
		}
	}
	if len(store.ledger) != 0 {
		t.Fatalf("expected no ledger rows, got %d", len(store.ledger))
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemStore(), nil)
	if _, err := svc.Create(context.Background(), "t1", Account{Name: "   "}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
