package reports

import (
	"context"
	"sort"
	"time"

	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

// RevenueActions are the log entries whose signed amounts make up collected
// revenue. Reversals carry negative amounts, and a payment type change books
// the money again under its new method.
var RevenueActions = []activity.Action{
	activity.ActionPaymentReceived,
	activity.ActionPartialPayment,
	activity.ActionPaymentReversed,
	activity.ActionPaymentTypeChanged,
}

// MethodActions add debt booked to running accounts to the revenue actions.
var MethodActions = append(append([]activity.Action(nil), RevenueActions...), activity.ActionMovedToAccount)

// PaymentActions are counted as payments; corrections are not.
var PaymentActions = []activity.Action{
	activity.ActionPaymentReceived,
	activity.ActionPartialPayment,
	activity.ActionMovedToAccount,
}

func actionNames(actions []activity.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a))
	}
	return out
}

type DayRevenue struct {
	Day      string          `json:"day"`
	Revenue  decimal.Decimal `json:"revenue"`
	Payments int             `json:"payments"`
}

type MethodRevenue struct {
	Method  string          `json:"method"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

type ProductSales struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type Range struct {
	From time.Time
	To   time.Time
	Loc  *time.Location
}

type Store interface {
	RevenueByDay(ctx context.Context, tenantID string, r Range) ([]DayRevenue, error)
	RevenueByMethod(ctx context.Context, tenantID string, r Range) ([]MethodRevenue, error)
	TopProducts(ctx context.Context, tenantID string, r Range, limit int) ([]ProductSales, error)
	// Dispositions counts orders created in range by their lifecycle state.
	Dispositions(ctx context.Context, tenantID string, r Range) (map[string]int, error)
}

type Summary struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	Revenue      decimal.Decimal `json:"revenue"`
	Payments     int             `json:"payments"`
	ByDay        []DayRevenue    `json:"byDay"`
	ByMethod     []MethodRevenue `json:"byMethod"`
	TopProducts  []ProductSales  `json:"topProducts"`
	Dispositions map[string]int  `json:"dispositions"`
	OrderCount   int             `json:"orderCount"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

const maxRangeDays = 366

// ParseRange reads inclusive YYYY-MM-DD bounds in loc. Empty bounds default
// to today.
func ParseRange(from, to string, loc *time.Location, now time.Time) (Range, error) {
	today := now.In(loc).Format("2006-01-02")
	if from == "" {
		from = today
	}
	if to == "" {
		to = from
	}
	start, err := time.ParseInLocation("2006-01-02", from, loc)
	if err != nil {
		return Range{}, apperr.Validation("INVALID_DATE", "from must be YYYY-MM-DD")
	}
	end, err := time.ParseInLocation("2006-01-02", to, loc)
	if err != nil {
		return Range{}, apperr.Validation("INVALID_DATE", "to must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return Range{}, apperr.Validation("INVALID_DATE", "to must not be before from")
	}
	end = end.AddDate(0, 0, 1)
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return Range{}, apperr.Validation("INVALID_DATE", "Range is limited to one year")
	}
	return Range{From: start, To: end, Loc: loc}, nil
}

// fillDays returns one entry per calendar day of r, zero where no revenue
// was recorded.
func fillDays(r Range, rows []DayRevenue) []DayRevenue {
	byDay := make(map[string]DayRevenue, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row
	}
	out := make([]DayRevenue, 0)
	for d := r.From; d.Before(r.To); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if row, ok := byDay[key]; ok {
			out = append(out, row)
			continue
		}
		out = append(out, DayRevenue{Day: key, Revenue: decimal.Zero})
	}
	return out
}

func (s *Service) Summary(ctx context.Context, tenantID string, r Range) (*Summary, error) {
	days, err := s.store.RevenueByDay(ctx, tenantID, r)
	if err != nil {
		return nil, err
	}
	methods, err := s.store.RevenueByMethod(ctx, tenantID, r)
	if err != nil {
		return nil, err
	}
	products, err := s.store.TopProducts(ctx, tenantID, r, 10)
	if err != nil {
		return nil, err
	}
	dispositions, err := s.store.Dispositions(ctx, tenantID, r)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		From:         r.From.Format("2006-01-02"),
		To:           r.To.AddDate(0, 0, -1).Format("2006-01-02"),
		Revenue:      decimal.Zero,
		ByDay:        fillDays(r, days),
		ByMethod:     methods,
		TopProducts:  products,
		Dispositions: dispositions,
	}
	for _, d := range days {
		sum.Revenue = sum.Revenue.Add(d.Revenue)
		sum.Payments += d.Payments
	}
	for _, n := range dispositions {
		sum.OrderCount += n
	}
	sort.SliceStable(sum.ByMethod, func(i, j int) bool { return sum.ByMethod[i].Revenue.GreaterThan(sum.ByMethod[j].Revenue) })
	return sum, nil
}
