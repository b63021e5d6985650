package reports

import (
	"context"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/db"
)

type PGStore struct {
	DB db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{DB: q}
}

// Collected money lives on payment activity entries: they carry the
// discounted amount, which order totals do not. Reversals and payment type
// corrections are signed, so summing them nets out reopened tables.
func (s *PGStore) RevenueByDay(ctx context.Context, tenantID string, r Range) ([]DayRevenue, error) {
	rows, err := s.DB.Query(ctx, `
		select to_char(created_at at time zone $4, 'YYYY-MM-DD') as day, coalesce(sum(amount), 0),
		       count(*) filter (where action = any($6))
		from activity_logs
		where tenant_id = $1 and created_at >= $2 and created_at < $3
		  and action = any($5)
		group by day
		order by day
	`, tenantID, r.From, r.To, r.Loc.String(), actionNames(RevenueActions), actionNames(PaymentActions))
	if err != nil {
		return nil, apperr.Remote("Failed to load revenue", err)
	}
	defer rows.Close()
	out := make([]DayRevenue, 0)
	for rows.Next() {
		var d DayRevenue
		if err := rows.Scan(&d.Day, &d.Revenue, &d.Payments); err != nil {
			return nil, apperr.Remote("Failed to load revenue", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) RevenueByMethod(ctx context.Context, tenantID string, r Range) ([]MethodRevenue, error) {
	rows, err := s.DB.Query(ctx, `
		select coalesce(payment_type, 'unknown'), coalesce(sum(amount), 0),
		       count(*) filter (where action = any($5))
		from activity_logs
		where tenant_id = $1 and created_at >= $2 and created_at < $3
		  and action = any($4)
		group by 1
	`, tenantID, r.From, r.To, actionNames(MethodActions), actionNames(PaymentActions))
	if err != nil {
		return nil, apperr.Remote("Failed to load revenue", err)
	}
	defer rows.Close()
	out := make([]MethodRevenue, 0)
	for rows.Next() {
		var m MethodRevenue
		if err := rows.Scan(&m.Method, &m.Revenue, &m.Count); err != nil {
			return nil, apperr.Remote("Failed to load revenue", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PGStore) TopProducts(ctx context.Context, tenantID string, r Range, limit int) ([]ProductSales, error) {
	rows, err := s.DB.Query(ctx, `
		select item->>'name' as name,
		       sum((item->>'quantity')::int) as quantity,
		       sum((item->>'price')::numeric * (item->>'quantity')::int) as revenue
		from orders, jsonb_array_elements(items) as item
		where tenant_id = $1 and created_at >= $2 and created_at < $3
		  and status = 'paid' and payment_status in ('paid', 'account')
		  and coalesce(item->>'productId', '') <> ''
		group by name
		order by quantity desc, revenue desc
		limit $4
	`, tenantID, r.From, r.To, limit)
	if err != nil {
		return nil, apperr.Remote("Failed to load product sales", err)
	}
	defer rows.Close()
	out := make([]ProductSales, 0)
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.Name, &p.Quantity, &p.Revenue); err != nil {
			return nil, apperr.Remote("Failed to load product sales", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) Dispositions(ctx context.Context, tenantID string, r Range) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
		select case when status = 'paid' then payment_status else status end, count(*)
		from orders
		where tenant_id = $1 and created_at >= $2 and created_at < $3
		group by 1
	`, tenantID, r.From, r.To)
	if err != nil {
		return nil, apperr.Remote("Failed to load order counts", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, apperr.Remote("Failed to load order counts", err)
		}
		out[key] = n
	}
	return out, rows.Err()
}
