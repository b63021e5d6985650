package accounts

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

const accountColumns = `id::text, name, phone, note, balance, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.Note, &a.Balance, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PGStore) List(ctx context.Context, tenantID string) ([]Account, error) {
	rows, err := s.Pool.Query(ctx, `select `+accountColumns+` from accounts where tenant_id = $1 order by name`, tenantID)
	if err != nil {
		return nil, apperr.Remote("Failed to load accounts", err)
	}
	defer rows.Close()
	out := make([]Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apperr.Remote("Failed to load accounts", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, tenantID, id string) (*Account, error) {
	return get(ctx, s.Pool, tenantID, id, false)
}

func get(ctx context.Context, q db.Querier, tenantID, id string, forUpdate bool) (*Account, error) {
	sql := `select ` + accountColumns + ` from accounts where tenant_id = $1 and id = $2`
	if forUpdate {
		sql += ` for update`
	}
	a, err := scanAccount(q.QueryRow(ctx, sql, tenantID, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, apperr.Remote("Failed to load account", err)
	}
	return a, nil
}

func (s *PGStore) Create(ctx context.Context, tenantID string, a *Account) error {
	err := s.Pool.QueryRow(ctx, `
		insert into accounts (tenant_id, name, phone, note) values ($1, $2, $3, $4)
		returning id::text, balance, created_at
	`, tenantID, a.Name, a.Phone, a.Note).Scan(&a.ID, &a.Balance, &a.CreatedAt)
	if err != nil {
		return apperr.Remote("Failed to create account", err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, tenantID string, a *Account) error {
	tag, err := s.Pool.Exec(ctx, `
		update accounts set name = $3, phone = $4, note = $5 where tenant_id = $1 and id = $2
	`, tenantID, a.ID, a.Name, a.Phone, a.Note)
	if err != nil {
		return apperr.Remote("Failed to update account", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("ACCOUNT_NOT_FOUND", "Account not found")
	}
	return nil
}

func (s *PGStore) Transactions(ctx context.Context, tenantID, accountID string) ([]Transaction, error) {
	rows, err := s.Pool.Query(ctx, `
		select id::text, account_id::text, type, amount, description, table_number, created_at
		from account_transactions
		where tenant_id = $1 and account_id = $2
		order by created_at desc
	`, tenantID, accountID)
	if err != nil {
		return nil, apperr.Remote("Failed to load account history", err)
	}
	defer rows.Close()
	out := make([]Transaction, 0)
	for rows.Next() {
		var (
			t     Transaction
			kind  string
			table pgtype.Int4
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &kind, &t.Amount, &t.Description, &table, &t.CreatedAt); err != nil {
			return nil, apperr.Remote("Failed to load account history", err)
		}
		t.Type = TransactionType(kind)
		if table.Valid {
			n := int(table.Int32)
			t.TableNumber = &n
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) Post(ctx context.Context, tenantID, accountID string, e Entry) (*Account, error) {
	var out *Account
	err := db.WithTx(ctx, s.Pool, func(ctx context.Context, tx pgx.Tx) error {
		acc, err := Apply(ctx, tx, tenantID, accountID, e)
		out = acc
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Apply inserts the ledger row and moves the cached balance using q. Callers
// outside a transaction lose the ledger/balance agreement.
func Apply(ctx context.Context, q db.Querier, tenantID, accountID string, e Entry) (*Account, error) {
	if e.Type != TypeDebt && e.Type != TypePayment {
		return nil, apperr.Validation("INVALID_TRANSACTION", "Unknown account transaction type")
	}
	if !e.Amount.IsPositive() {
		return nil, apperr.Validation("INVALID_AMOUNT", "Amount must be greater than zero")
	}
	acc, err := get(ctx, q, tenantID, accountID, true)
	if err != nil {
		return nil, err
	}
	if _, err := q.Exec(ctx, `
		insert into account_transactions (tenant_id, account_id, type, amount, description, table_number)
		values ($1, $2, $3, $4, $5, $6)
	`, tenantID, accountID, string(e.Type), e.Amount, e.Description, e.TableNumber); err != nil {
		return nil, apperr.Remote("Failed to write account transaction", err)
	}
	if err := q.QueryRow(ctx, `
		update accounts set balance = balance + $3 where tenant_id = $1 and id = $2 returning balance
	`, tenantID, accountID, e.delta()).Scan(&acc.Balance); err != nil {
		return nil, apperr.Remote("Failed to update account balance", err)
	}
	return acc, nil
}
