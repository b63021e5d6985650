package activity

import (
	"context"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/db"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type PGStore struct {
	DB db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{DB: q}
}

func (s *PGStore) Append(ctx context.Context, tenantID string, e Entry) error {
	return Insert(ctx, s.DB, tenantID, e)
}

// Insert appends an entry using q, which may be a transaction.
func Insert(ctx context.Context, q db.Querier, tenantID string, e Entry) error {
	if !e.Action.Valid() {
		return apperr.Validation("INVALID_ACTION", "Unknown activity action")
	}
	_, err := q.Exec(ctx, `
		insert into activity_logs (tenant_id, table_number, actor, action, detail, amount, payment_type)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, tenantID, e.TableNumber, e.Actor, string(e.Action), e.Detail, e.Amount, e.PaymentType)
	if err != nil {
		return apperr.Remote("Failed to write activity log", err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, tenantID string, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var table pgtype.Int4
	if f.TableNumber != nil {
		table = pgtype.Int4{Int32: int32(*f.TableNumber), Valid: true}
	}
	rows, err := s.DB.Query(ctx, `
		select id::text, table_number, actor, action, detail, amount, payment_type, created_at
		from activity_logs
		where tenant_id = $1 and created_at >= $2 and created_at < $3
		  and ($4::int is null or table_number = $4)
		order by created_at desc
		limit $5
	`, tenantID, f.From, f.To, table, limit)
	if err != nil {
		return nil, apperr.Remote("Failed to load activity", err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var (
			e           Entry
			action      string
			amount      decimal.NullDecimal
			paymentType pgtype.Text
		)
		if err := rows.Scan(&e.ID, &e.TableNumber, &e.Actor, &action, &e.Detail, &amount, &paymentType, &e.CreatedAt); err != nil {
			return nil, apperr.Remote("Failed to load activity", err)
		}
		e.Action = Action(action)
		e.Label = e.Action.Label()
		if amount.Valid {
			v := amount.Decimal
			e.Amount = &v
		}
		if paymentType.Valid {
			e.PaymentType = &paymentType.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
