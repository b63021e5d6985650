package staff

import (
	"context"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"
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

const staffColumns = `id::text, username, display_name, role, work_days, shift_start, shift_end, is_active, created_at, password_hash, pin_hash`

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		r       Record
		role    string
		pinHash pgtype.Text
	)
	if err := row.Scan(&r.ID, &r.Username, &r.DisplayName, &role, &r.WorkDays, &r.ShiftStart, &r.ShiftEnd, &r.IsActive, &r.CreatedAt, &r.PasswordHash, &pinHash); err != nil {
		return nil, err
	}
	r.Role = auth.Role(role)
	if pinHash.Valid {
		r.PINHash = &pinHash.String
	}
	r.HasPIN = pinHash.Valid
	return &r, nil
}

func loadPermissions(ctx context.Context, q db.Querier, staffIDs []string) (map[string]map[auth.Permission]bool, error) {
	out := make(map[string]map[auth.Permission]bool, len(staffIDs))
	if len(staffIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `select staff_id::text, permission, granted from staff_permissions where staff_id::text = any($1)`, staffIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id      string
			perm    string
			granted bool
		)
		if err := rows.Scan(&id, &perm, &granted); err != nil {
			return nil, err
		}
		if out[id] == nil {
			out[id] = map[auth.Permission]bool{}
		}
		out[id][auth.Permission(perm)] = granted
	}
	return out, rows.Err()
}

func (s *PGStore) List(ctx context.Context, tenantID string) ([]Member, error) {
	rows, err := s.Pool.Query(ctx, `select `+staffColumns+` from staff where tenant_id = $1 order by display_name`, tenantID)
	if err != nil {
		return nil, apperr.Remote("Failed to load staff", err)
	}
	defer rows.Close()
	out := make([]Member, 0)
	ids := make([]string, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.Remote("Failed to load staff", err)
		}
		out = append(out, r.Member)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Remote("Failed to load staff", err)
	}
	perms, err := loadPermissions(ctx, s.Pool, ids)
	if err != nil {
		return nil, apperr.Remote("Failed to load staff permissions", err)
	}
	for i := range out {
		out[i].Permissions = perms[out[i].ID]
	}
	return out, nil
}

func (s *PGStore) one(ctx context.Context, where string, args ...any) (*Record, error) {
	r, err := scanRecord(s.Pool.QueryRow(ctx, `select `+staffColumns+` from staff where `+where, args...))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
		}
		return nil, apperr.Remote("Failed to load staff", err)
	}
	perms, err := loadPermissions(ctx, s.Pool, []string{r.ID})
	if err != nil {
		return nil, apperr.Remote("Failed to load staff permissions", err)
	}
	r.Permissions = perms[r.ID]
	return r, nil
}

func (s *PGStore) Get(ctx context.Context, tenantID, id string) (*Record, error) {
	return s.one(ctx, `tenant_id = $1 and id = $2`, tenantID, id)
}

func (s *PGStore) GetByUsername(ctx context.Context, tenantID, username string) (*Record, error) {
	return s.one(ctx, `tenant_id = $1 and lower(username) = lower($2)`, tenantID, username)
}

func replacePermissions(ctx context.Context, tx pgx.Tx, staffID string, perms map[auth.Permission]bool) error {
	if perms == nil {
		return nil
	}
	if _, err := tx.Exec(ctx, `delete from staff_permissions where staff_id = $1`, staffID); err != nil {
		return err
	}
	for p, granted := range perms {
		if _, err := tx.Exec(ctx, `
			insert into staff_permissions (staff_id, permission, granted) values ($1, $2, $3)
		`, staffID, string(p), granted); err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) Create(ctx context.Context, tenantID string, r *Record, perms map[auth.Permission]bool) error {
	return db.WithTx(ctx, s.Pool, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			insert into staff (tenant_id, username, display_name, role, password_hash, pin_hash, work_days, shift_start, shift_end, is_active)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			returning id::text, created_at
		`, tenantID, r.Username, r.DisplayName, string(r.Role), r.PasswordHash, r.PINHash, r.WorkDays, r.ShiftStart, r.ShiftEnd, r.IsActive,
		).Scan(&r.ID, &r.CreatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.Conflict("USERNAME_TAKEN", "Username is already taken")
			}
			return apperr.Remote("Failed to create staff", err)
		}
		if err := replacePermissions(ctx, tx, r.ID, perms); err != nil {
			return apperr.Remote("Failed to save staff permissions", err)
		}
		return nil
	})
}

func (s *PGStore) Update(ctx context.Context, tenantID string, r *Record, perms map[auth.Permission]bool) error {
	return db.WithTx(ctx, s.Pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			update staff
			set username = $3, display_name = $4, role = $5, password_hash = $6, pin_hash = $7,
			    work_days = $8, shift_start = $9, shift_end = $10, is_active = $11
			where tenant_id = $1 and id = $2
		`, tenantID, r.ID, r.Username, r.DisplayName, string(r.Role), r.PasswordHash, r.PINHash, r.WorkDays, r.ShiftStart, r.ShiftEnd, r.IsActive)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.Conflict("USERNAME_TAKEN", "Username is already taken")
			}
			return apperr.Remote("Failed to update staff", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
		}
		if err := replacePermissions(ctx, tx, r.ID, perms); err != nil {
			return apperr.Remote("Failed to save staff permissions", err)
		}
		return nil
	})
}

func (s *PGStore) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := s.Pool.Exec(ctx, `delete from staff where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return apperr.Remote("Failed to delete staff", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
	}
	return nil
}
