package tenant

import (
	"context"
	"encoding/json"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/db"
)

type PGStore struct {
	DB db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{DB: q}
}

func (s *PGStore) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.find(ctx, `select id::text, slug, name, is_active, settings from tenants where slug = $1`, slug)
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*Tenant, error) {
	return s.find(ctx, `select id::text, slug, name, is_active, settings from tenants where id = $1`, id)
}

func (s *PGStore) find(ctx context.Context, query string, arg string) (*Tenant, error) {
	var (
		t   Tenant
		raw []byte
	)
	if err := s.DB.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Slug, &t.Name, &t.IsActive, &raw); err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("TENANT_NOT_FOUND", "Business not found")
		}
		return nil, apperr.Remote("Failed to load business", err)
	}
	t.Settings = ParseSettings(raw)
	return &t, nil
}

func (s *PGStore) UpdateSettings(ctx context.Context, id string, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	if _, err := s.DB.Exec(ctx, `update tenants set settings = $2 where id = $1`, id, raw); err != nil {
		return apperr.Remote("Failed to save settings", err)
	}
	return nil
}
