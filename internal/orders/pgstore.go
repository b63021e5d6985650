package orders

import (
	"context"
	"encoding/json"
	"time"

	"tableside-order-services/internal/accounts"
	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/db"
	"tableside-order-services/internal/loyalty"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ChangeChannel carries the tenant id of every order write; listeners
// re-fetch on each notification.
const ChangeChannel = "orders_updates"

type PGStore struct {
	pool *pgxpool.Pool
	q    db.Querier
	// touched collects tenants written inside a transaction so the commit
	// notifies each once.
	touched map[string]struct{}
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, q: pool}
}

func (s *PGStore) InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(ctx, s)
	}
	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		txStore := &PGStore{q: tx, touched: map[string]struct{}{}}
		if err := fn(ctx, txStore); err != nil {
			return err
		}
		for tenantID := range txStore.touched {
			if err := db.Notify(ctx, tx, ChangeChannel, tenantID); err != nil {
				return apperr.Remote("Failed to publish order change", err)
			}
		}
		return nil
	})
}

func (s *PGStore) touch(ctx context.Context, tenantID string) error {
	if s.touched != nil {
		s.touched[tenantID] = struct{}{}
		return nil
	}
	if err := db.Notify(ctx, s.q, ChangeChannel, tenantID); err != nil {
		return apperr.Remote("Failed to publish order change", err)
	}
	return nil
}

const orderColumns = `id::text, user_id, display_name, table_number, items, total, status, payment_status,
	payment_type, collected, note, version, closed_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o             Order
		itemsRaw      []byte
		status        string
		paymentStatus string
		paymentType   pgtype.Text
		collected     decimal.NullDecimal
		closedAt      pgtype.Timestamptz
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.DisplayName, &o.TableNumber, &itemsRaw, &o.Total, &status, &paymentStatus,
		&paymentType, &collected, &o.Note, &o.Version, &closedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := DispositionFrom(status, paymentStatus)
	if err != nil {
		return nil, err
	}
	o.Disposition = d
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
			return nil, err
		}
	}
	if paymentType.Valid {
		o.PaymentType = &paymentType.String
	}
	if collected.Valid {
		v := collected.Decimal
		o.Collected = &v
	}
	if closedAt.Valid {
		o.ClosedAt = &closedAt.Time
	}
	return &o, nil
}

func (s *PGStore) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Remote("Failed to load orders", err)
	}
	defer rows.Close()
	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperr.Remote("Failed to load orders", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Remote("Failed to load orders", err)
	}
	return out, nil
}

func (s *PGStore) ListOpen(ctx context.Context, tenantID string) ([]Order, error) {
	return s.list(ctx, `
		select `+orderColumns+` from orders
		where tenant_id = $1 and status in ('waiting', 'preparing', 'ready')
		order by created_at
	`, tenantID)
}

func (s *PGStore) ListOpenByTable(ctx context.Context, tenantID string, table int) ([]Order, error) {
	return s.list(ctx, `
		select `+orderColumns+` from orders
		where tenant_id = $1 and table_number = $2 and status in ('waiting', 'preparing', 'ready')
		order by created_at
		for update
	`, tenantID, table)
}

func (s *PGStore) ListClosedSince(ctx context.Context, tenantID string, since time.Time) ([]Order, error) {
	return s.list(ctx, `
		select `+orderColumns+` from orders
		where tenant_id = $1 and status = 'paid' and closed_at >= $2
		order by closed_at
	`, tenantID, since)
}

func (s *PGStore) Get(ctx context.Context, tenantID, id string) (*Order, error) {
	o, err := scanOrder(s.q.QueryRow(ctx, `select `+orderColumns+` from orders where tenant_id = $1 and id = $2`, tenantID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("ORDER_NOT_FOUND", "Order not found")
		}
		return nil, apperr.Remote("Failed to load order", err)
	}
	return o, nil
}

func (s *PGStore) Insert(ctx context.Context, tenantID string, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return apperr.Remote("Failed to encode order items", err)
	}
	o.Version = 1
	err = s.q.QueryRow(ctx, `
		insert into orders (id, tenant_id, user_id, display_name, table_number, items, total, status, payment_status, payment_type, collected, note, version, closed_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13)
		returning created_at, updated_at
	`, o.ID, tenantID, o.UserID, o.DisplayName, o.TableNumber, items, o.Total,
		o.Disposition.Status(), o.Disposition.PaymentStatus(), o.PaymentType, o.Collected, o.Note, o.ClosedAt,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return apperr.Remote("Failed to save order", err)
	}
	return s.touch(ctx, tenantID)
}

func (s *PGStore) Update(ctx context.Context, tenantID string, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return apperr.Remote("Failed to encode order items", err)
	}
	err = s.q.QueryRow(ctx, `
		update orders
		set table_number = $4, items = $5, total = $6, status = $7, payment_status = $8, payment_type = $9,
		    collected = $10, note = $11, closed_at = $12, version = version + 1, updated_at = now()
		where tenant_id = $1 and id = $2 and version = $3
		returning version, updated_at
	`, tenantID, o.ID, o.Version, o.TableNumber, items, o.Total,
		o.Disposition.Status(), o.Disposition.PaymentStatus(), o.PaymentType, o.Collected, o.Note, o.ClosedAt,
	).Scan(&o.Version, &o.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return apperr.Conflict("ORDER_CHANGED", "The order was changed by someone else; reload and try again").
				WithDetails(map[string]any{"orderId": o.ID})
		}
		return apperr.Remote("Failed to update order", err)
	}
	return s.touch(ctx, tenantID)
}

func (s *PGStore) AppendActivity(ctx context.Context, tenantID string, e activity.Entry) error {
	return activity.Insert(ctx, s.q, tenantID, e)
}

func (s *PGStore) PostAccountDebt(ctx context.Context, tenantID, accountID string, amount decimal.Decimal, table int, description string) (*accounts.Account, error) {
	return accounts.Apply(ctx, s.q, tenantID, accountID, accounts.Entry{
		Type:        accounts.TypeDebt,
		Amount:      amount,
		Description: description,
		TableNumber: &table,
	})
}

func (s *PGStore) PostLoyalty(ctx context.Context, tenantID, memberID string, p loyalty.Posting) error {
	return loyalty.Apply(ctx, s.q, tenantID, memberID, p)
}
