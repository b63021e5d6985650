package floor

import (
	"context"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/db"

	"github.com/jackc/pgx/v5/pgtype"
)

type PGStore struct {
	DB db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{DB: q}
}

func (s *PGStore) ListAreas(ctx context.Context, tenantID string) ([]Area, error) {
	rows, err := s.DB.Query(ctx, `
		select id::text, name, sort_order from table_areas where tenant_id = $1 order by sort_order, name
	`, tenantID)
	if err != nil {
		return nil, apperr.Remote("Failed to load areas", err)
	}
	defer rows.Close()
	out := make([]Area, 0)
	for rows.Next() {
		var a Area
		if err := rows.Scan(&a.ID, &a.Name, &a.SortOrder); err != nil {
			return nil, apperr.Remote("Failed to load areas", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveArea(ctx context.Context, tenantID string, a *Area) error {
	if a.ID == "" {
		if err := s.DB.QueryRow(ctx, `
			insert into table_areas (tenant_id, name, sort_order) values ($1, $2, $3) returning id::text
		`, tenantID, a.Name, a.SortOrder).Scan(&a.ID); err != nil {
			return apperr.Remote("Failed to save area", err)
		}
		return nil
	}
	tag, err := s.DB.Exec(ctx, `
		update table_areas set name = $3, sort_order = $4 where tenant_id = $1 and id = $2
	`, tenantID, a.ID, a.Name, a.SortOrder)
	if err != nil {
		return apperr.Remote("Failed to save area", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("AREA_NOT_FOUND", "Area not found")
	}
	return nil
}

func (s *PGStore) DeleteArea(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, `delete from table_areas where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return apperr.Remote("Failed to delete area", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("AREA_NOT_FOUND", "Area not found")
	}
	return nil
}

func (s *PGStore) ListTables(ctx context.Context, tenantID string) ([]Table, error) {
	rows, err := s.DB.Query(ctx, `
		select id::text, area_id::text, number, name, capacity, is_active
		from dining_tables where tenant_id = $1 order by number
	`, tenantID)
	if err != nil {
		return nil, apperr.Remote("Failed to load tables", err)
	}
	defer rows.Close()
	out := make([]Table, 0)
	for rows.Next() {
		var (
			t      Table
			areaID pgtype.Text
		)
		if err := rows.Scan(&t.ID, &areaID, &t.Number, &t.Name, &t.Capacity, &t.IsActive); err != nil {
			return nil, apperr.Remote("Failed to load tables", err)
		}
		if areaID.Valid {
			t.AreaID = &areaID.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveTable(ctx context.Context, tenantID string, t *Table) error {
	if t.ID == "" {
		err := s.DB.QueryRow(ctx, `
			insert into dining_tables (tenant_id, area_id, number, name, capacity, is_active)
			values ($1, $2, $3, $4, $5, $6) returning id::text
		`, tenantID, t.AreaID, t.Number, t.Name, t.Capacity, t.IsActive).Scan(&t.ID)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return apperr.Conflict("TABLE_EXISTS", "A table with this number already exists")
			}
			return apperr.Remote("Failed to save table", err)
		}
		return nil
	}
	tag, err := s.DB.Exec(ctx, `
		update dining_tables set area_id = $3, number = $4, name = $5, capacity = $6, is_active = $7
		where tenant_id = $1 and id = $2
	`, tenantID, t.ID, t.AreaID, t.Number, t.Name, t.Capacity, t.IsActive)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("TABLE_EXISTS", "A table with this number already exists")
		}
		return apperr.Remote("Failed to save table", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("TABLE_NOT_FOUND", "Table not found")
	}
	return nil
}

func (s *PGStore) DeleteTable(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, `delete from dining_tables where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return apperr.Remote("Failed to delete table", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("TABLE_NOT_FOUND", "Table not found")
	}
	return nil
}
