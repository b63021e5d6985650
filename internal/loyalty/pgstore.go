package loyalty

import (
	"context"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	Pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

const memberColumns = `id::text, name, phone, total_points, used_points, total_spent, visit_count, last_visit_at, created_at`

func scanMember(row pgx.Row) (*Member, error) {
	var (
		m         Member
		lastVisit pgtype.Timestamptz
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.TotalPoints, &m.UsedPoints, &m.TotalSpent, &m.VisitCount, &lastVisit, &m.CreatedAt); err != nil {
		return nil, err
	}
	if lastVisit.Valid {
		m.LastVisitAt = &lastVisit.Time
	}
	return &m, nil
}

func (s *PGStore) FindByPhone(ctx context.Context, tenantID, phone string) (*Member, error) {
	m, err := scanMember(s.Pool.QueryRow(ctx, `select `+memberColumns+` from members where tenant_id = $1 and phone = $2`, tenantID, phone))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("MEMBER_NOT_FOUND", "Member not found")
		}
		return nil, apperr.Remote("Failed to load member", err)
	}
	return m, nil
}

func (s *PGStore) Get(ctx context.Context, tenantID, id string) (*Member, error) {
	m, err := scanMember(s.Pool.QueryRow(ctx, `select `+memberColumns+` from members where tenant_id = $1 and id = $2`, tenantID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("MEMBER_NOT_FOUND", "Member not found")
		}
		return nil, apperr.Remote("Failed to load member", err)
	}
	return m, nil
}

func (s *PGStore) Create(ctx context.Context, tenantID string, m *Member) error {
	err := s.Pool.QueryRow(ctx, `
		insert into members (tenant_id, name, phone) values ($1, $2, $3)
		returning id::text, created_at, total_spent
	`, tenantID, m.Name, m.Phone).Scan(&m.ID, &m.CreatedAt, &m.TotalSpent)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("MEMBER_EXISTS", "A member with this phone number already exists")
		}
		return apperr.Remote("Failed to create member", err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, tenantID, search string) ([]Member, error) {
	rows, err := s.Pool.Query(ctx, `
		select `+memberColumns+`
		from members
		where tenant_id = $1 and ($2 = '' or name ilike '%' || $2 || '%' or phone like '%' || $2 || '%')
		order by last_visit_at desc nulls last, name
		limit 500
	`, tenantID, search)
	if err != nil {
		return nil, apperr.Remote("Failed to load members", err)
	}
	defer rows.Close()
	out := make([]Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, apperr.Remote("Failed to load members", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PGStore) Transactions(ctx context.Context, tenantID, memberID string) ([]Transaction, error) {
	rows, err := s.Pool.Query(ctx, `
		select id::text, member_id::text, type, points, description, order_id::text, created_at
		from point_transactions
		where tenant_id = $1 and member_id = $2
		order by created_at desc
	`, tenantID, memberID)
	if err != nil {
		return nil, apperr.Remote("Failed to load point history", err)
	}
	defer rows.Close()
	out := make([]Transaction, 0)
	for rows.Next() {
		var (
			t       Transaction
			kind    string
			orderID pgtype.Text
		)
		if err := rows.Scan(&t.ID, &t.MemberID, &kind, &t.Points, &t.Description, &orderID, &t.CreatedAt); err != nil {
			return nil, apperr.Remote("Failed to load point history", err)
		}
		t.Type = TransactionType(kind)
		if orderID.Valid {
			t.OrderID = &orderID.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) Post(ctx context.Context, tenantID, memberID string, p Posting) error {
	return db.WithTx(ctx, s.Pool, func(ctx context.Context, tx pgx.Tx) error {
		return Apply(ctx, tx, tenantID, memberID, p)
	})
}

// Apply writes the ledger rows and the cached member counters with q, which
// must be a transaction for the two to stay in agreement.
func Apply(ctx context.Context, q db.Querier, tenantID, memberID string, p Posting) error {
	if p.Earn < 0 || p.Spend < 0 {
		return apperr.Validation("INVALID_POINTS", "Point quantities must be positive")
	}
	if p.Empty() {
		return nil
	}

	tag, err := q.Exec(ctx, `
		update members
		set total_points = total_points + $3,
		    used_points = used_points + $4,
		    total_spent = total_spent + $5,
		    visit_count = visit_count + case when $6 then 1 else 0 end,
		    last_visit_at = case when $6 then now() else last_visit_at end
		where tenant_id = $1 and id = $2 and total_points - used_points + $3 >= $4
	`, tenantID, memberID, p.Earn, p.Spend, p.Spent, p.Visit)
	if err != nil {
		return apperr.Remote("Failed to update member points", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `select exists(select 1 from members where tenant_id = $1 and id = $2)`, tenantID, memberID).Scan(&exists); err != nil {
			return apperr.Remote("Failed to update member points", err)
		}
		if !exists {
			return apperr.NotFound("MEMBER_NOT_FOUND", "Member not found")
		}
		return apperr.Validation("INSUFFICIENT_POINTS", "Member does not have enough points")
	}

	if p.Spend > 0 {
		if err := insertTransaction(ctx, q, tenantID, memberID, TypeSpend, p.Spend, p.Description, p.OrderID); err != nil {
			return err
		}
	}
	if p.Earn > 0 {
		if err := insertTransaction(ctx, q, tenantID, memberID, TypeEarn, p.Earn, p.Description, p.OrderID); err != nil {
			return err
		}
	}
	return nil
}

func insertTransaction(ctx context.Context, q db.Querier, tenantID, memberID string, kind TransactionType, points int, description string, orderID *string) error {
	_, err := q.Exec(ctx, `
		insert into point_transactions (tenant_id, member_id, type, points, description, order_id)
		values ($1, $2, $3, $4, $5, $6)
	`, tenantID, memberID, string(kind), points, description, orderID)
	if err != nil {
		return apperr.Remote("Failed to write point transaction", err)
	}
	return nil
}
