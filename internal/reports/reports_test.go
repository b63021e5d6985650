package reports

import (
	"context"
	"testing"
	"time"

	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	return loc
}

func TestParseRange(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC) // already the 11th in Istanbul

	r, err := ParseRange("", "", loc, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.From.Format("2006-01-02"); got != "2026-03-11" {
		t.Fatalf("expected local today, got %s", got)
	}
	if r.To.Sub(r.From) != 24*time.Hour {
		t.Fatalf("expected one day range, got %s", r.To.Sub(r.From))
	}

	cases := []struct {
		name     string
		from, to string
	}{
		{name: "bad from", from: "10/03/2026"},
		{name: "bad to", from: "2026-03-01", to: "tomorrow"},
		{name: "reversed", from: "2026-03-10", to: "2026-03-01"},
		{name: "too long", from: "2024-01-01", to: "2026-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRange(tc.from, tc.to, loc, now); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

type fakeStore struct {
	days         []DayRevenue
	methods      []MethodRevenue
	dispositions map[string]int
}

func (f fakeStore) RevenueByDay(context.Context, string, Range) ([]DayRevenue, error) {
	return f.days, nil
}

func (f fakeStore) RevenueByMethod(context.Context, string, Range) ([]MethodRevenue, error) {
	return f.methods, nil
}

func (f fakeStore) TopProducts(context.Context, string, Range, int) ([]ProductSales, error) {
	return []ProductSales{}, nil
}

func (f fakeStore) Dispositions(context.Context, string, Range) (map[string]int, error) {
	return f.dispositions, nil
}

func TestSummaryFillsDaysAndTotals(t *testing.T) {
	r, err := ParseRange("2026-03-01", "2026-03-03", time.UTC, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store := fakeStore{
		days: []DayRevenue{
			{Day: "2026-03-01", Revenue: decimal.RequireFromString("130.50"), Payments: 2},
			{Day: "2026-03-03", Revenue: decimal.RequireFromString("70"), Payments: 1},
		},
		methods: []MethodRevenue{
			{Method: "cash", Revenue: decimal.RequireFromString("70"), Count: 1},
			{Method: "card", Revenue: decimal.RequireFromString("130.50"), Count: 2},
		},
		dispositions: map[string]int{"paid": 3, "cancelled": 1},
	}

	sum, err := NewService(store).Summary(context.Background(), "t1", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sum.ByDay) != 3 {
		t.Fatalf("expected 3 days, got %d", len(sum.ByDay))
	}
	if sum.ByDay[1].Day != "2026-03-02" || !sum.ByDay[1].Revenue.IsZero() {
		t.Fatalf("expected empty middle day, got %+v", sum.ByDay[1])
	}
	if !sum.Revenue.Equal(decimal.RequireFromString("200.50")) || sum.Payments != 3 {
		t.Fatalf("unexpected totals %s / %d", sum.Revenue, sum.Payments)
	}
	if sum.ByMethod[0].Method != "card" {
		t.Fatalf("expected methods ordered by revenue, got %+v", sum.ByMethod)
	}
	if sum.OrderCount != 4 || sum.To != "2026-03-03" {
		t.Fatalf("unexpected summary %+v", sum)
	}
}
