package catalog

import (
	"context"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type PGStore struct {
	DB db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{DB: q}
}

func (s *PGStore) ListCategories(ctx context.Context, tenantID string, activeOnly bool) ([]Category, error) {
	rows, err := s.DB.Query(ctx, `
		select id::text, name, sort_order, is_active
		from categories
		where tenant_id = $1 and ($2 = false or is_active)
		order by sort_order, name
	`, tenantID, activeOnly)
	if err != nil {
		return nil, apperr.Remote("Failed to load categories", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive); err != nil {
			return nil, apperr.Remote("Failed to load categories", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveCategory(ctx context.Context, tenantID string, c *Category) error {
	var err error
	if c.ID == "" {
		err = s.DB.QueryRow(ctx, `
			insert into categories (tenant_id, name, sort_order, is_active)
			values ($1, $2, $3, $4) returning id::text
		`, tenantID, c.Name, c.SortOrder, c.IsActive).Scan(&c.ID)
	} else {
		var tag pgconn.CommandTag
		tag, err = s.DB.Exec(ctx, `
			update categories set name = $3, sort_order = $4, is_active = $5
			where tenant_id = $1 and id = $2
		`, tenantID, c.ID, c.Name, c.SortOrder, c.IsActive)
		if err == nil && tag.RowsAffected() == 0 {
			return apperr.NotFound("CATEGORY_NOT_FOUND", "Category not found")
		}
	}
	if err != nil {
		return apperr.Remote("Failed to save category", err)
	}
	return nil
}

func (s *PGStore) DeleteCategory(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, `delete from categories where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return apperr.Remote("Failed to delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("CATEGORY_NOT_FOUND", "Category not found")
	}
	return nil
}

const productColumns = `p.id::text, p.category_id::text, p.name, p.description, p.price, p.image_url, p.is_active, p.sort_order`

func scanProduct(row interface{ Scan(dest ...any) error }) (Product, error) {
	var (
		p          Product
		categoryID pgtype.Text
		imageURL   pgtype.Text
	)
	if err := row.Scan(&p.ID, &categoryID, &p.Name, &p.Description, &p.Price, &imageURL, &p.IsActive, &p.SortOrder); err != nil {
		return p, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.String
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	p.Options = make([]Option, 0)
	return p, nil
}

func (s *PGStore) ListProducts(ctx context.Context, tenantID string, activeOnly bool) ([]Product, error) {
	rows, err := s.DB.Query(ctx, `
		select `+productColumns+`
		from products p
		where p.tenant_id = $1 and ($2 = false or p.is_active)
		order by p.sort_order, p.name
	`, tenantID, activeOnly)
	if err != nil {
		return nil, apperr.Remote("Failed to load products", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Remote("Failed to load products", err)
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Remote("Failed to load products", err)
	}
	rows.Close()

	if err := s.attachOptions(ctx, tenantID, nil, func(o Option) {
		if i, ok := index[o.ProductID]; ok {
			products[i].Options = append(products[i].Options, o)
		}
	}); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *PGStore) GetProducts(ctx context.Context, tenantID string, ids []string) (map[string]Product, error) {
	out := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
		select `+productColumns+`
		from products p
		where p.tenant_id = $1 and p.id::text = any($2)
	`, tenantID, ids)
	if err != nil {
		return nil, apperr.Remote("Failed to load products", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Remote("Failed to load products", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Remote("Failed to load products", err)
	}
	rows.Close()

	err = s.attachOptions(ctx, tenantID, ids, func(o Option) {
		if p, ok := out[o.ProductID]; ok {
			p.Options = append(p.Options, o)
			out[o.ProductID] = p
		}
	})
	return out, err
}

func (s *PGStore) attachOptions(ctx context.Context, tenantID string, productIDs []string, add func(Option)) error {
	rows, err := s.DB.Query(ctx, `
		select id::text, product_id::text, name, extra_price, sort_order
		from product_options
		where tenant_id = $1 and ($2::text[] is null or product_id::text = any($2))
		order by sort_order, name
	`, tenantID, productIDs)
	if err != nil {
		return apperr.Remote("Failed to load product options", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Name, &o.ExtraPrice, &o.SortOrder); err != nil {
			return apperr.Remote("Failed to load product options", err)
		}
		add(o)
	}
	return rows.Err()
}

func (s *PGStore) SaveProduct(ctx context.Context, tenantID string, p *Product) error {
	var err error
	if p.ID == "" {
		err = s.DB.QueryRow(ctx, `
			insert into products (tenant_id, category_id, name, description, price, is_active, sort_order)
			values ($1, $2, $3, $4, $5, $6, $7) returning id::text
		`, tenantID, p.CategoryID, p.Name, p.Description, p.Price, p.IsActive, p.SortOrder).Scan(&p.ID)
	} else {
		var tag pgconn.CommandTag
		tag, err = s.DB.Exec(ctx, `
			update products
			set category_id = $3, name = $4, description = $5, price = $6, is_active = $7, sort_order = $8
			where tenant_id = $1 and id = $2
		`, tenantID, p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.IsActive, p.SortOrder)
		if err == nil && tag.RowsAffected() == 0 {
			return apperr.NotFound("PRODUCT_NOT_FOUND", "Product not found")
		}
	}
	if err != nil {
		return apperr.Remote("Failed to save product", err)
	}
	return nil
}

func (s *PGStore) DeleteProduct(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, `delete from products where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return apperr.Remote("Failed to delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("PRODUCT_NOT_FOUND", "Product not found")
	}
	return nil
}

func (s *PGStore) SetProductImage(ctx context.Context, tenantID, id, url string) error {
	tag, err := s.DB.Exec(ctx, `update products set image_url = $3 where tenant_id = $1 and id = $2`, tenantID, id, url)
	if err != nil {
		return apperr.Remote("Failed to save product image", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("PRODUCT_NOT_FOUND", "Product not found")
	}
	return nil
}

func (s *PGStore) SaveOption(ctx context.Context, tenantID string, o *Option) error {
	var err error
	if o.ID == "" {
		err = s.DB.QueryRow(ctx, `
			insert into product_options (tenant_id, product_id, name, extra_price, sort_order)
			select $1, p.id, $3, $4, $5 from products p where p.tenant_id = $1 and p.id = $2
			returning id::text
		`, tenantID, o.ProductID, o.Name, o.ExtraPrice, o.SortOrder).Scan(&o.ID)
		if db.IsNoRows(err) {
			return apperr.NotFound("PRODUCT_NOT_FOUND", "Product not found")
		}
	} else {
		var tag pgconn.CommandTag
		tag, err = s.DB.Exec(ctx, `
			update product_options set name = $3, extra_price = $4, sort_order = $5
			where tenant_id = $1 and id = $2
		`, tenantID, o.ID, o.Name, o.ExtraPrice, o.SortOrder)
		if err == nil && tag.RowsAffected() == 0 {
			return apperr.NotFound("OPTION_NOT_FOUND", "Option not found")
		}
	}
	if err != nil {
		return apperr.Remote("Failed to save option", err)
	}
	return nil
}

func (s *PGStore) DeleteOption(ctx context.Context, tenantID, id string) error {
	tag, err := s.DB.Exec(ctx, `delete from product_options where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return apperr.Remote("Failed to delete option", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("OPTION_NOT_FOUND", "Option not found")
	}
	return nil
}
