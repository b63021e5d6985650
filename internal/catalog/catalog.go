package catalog

import (
	"context"
	"strings"

	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
	IsActive  bool   `json:"isActive"`
}

type Option struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	ExtraPrice decimal.Decimal `json:"extraPrice"`
	SortOrder  int             `json:"sortOrder"`
}

type Product struct {
	ID          string          `json:"id"`
	CategoryID  *string         `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"imageUrl"`
	IsActive    bool            `json:"isActive"`
	SortOrder   int             `json:"sortOrder"`
	Options     []Option        `json:"options"`
}

func (p Product) Option(id string) (Option, bool) {
	for _, o := range p.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

type Menu struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}

type Store interface {
	ListCategories(ctx context.Context, tenantID string, activeOnly bool) ([]Category, error)
	SaveCategory(ctx context.Context, tenantID string, c *Category) error
	DeleteCategory(ctx context.Context, tenantID, id string) error

	ListProducts(ctx context.Context, tenantID string, activeOnly bool) ([]Product, error)
	GetProducts(ctx context.Context, tenantID string, ids []string) (map[string]Product, error)
	SaveProduct(ctx context.Context, tenantID string, p *Product) error
	DeleteProduct(ctx context.Context, tenantID, id string) error
	SetProductImage(ctx context.Context, tenantID, id, url string) error

	SaveOption(ctx context.Context, tenantID string, o *Option) error
	DeleteOption(ctx context.Context, tenantID, id string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Menu returns the catalog as customers and order-entry screens see it.
func (s *Service) Menu(ctx context.Context, tenantID string, activeOnly bool) (Menu, error) {
	categories, err := s.store.ListCategories(ctx, tenantID, activeOnly)
	if err != nil {
		return Menu{}, err
	}
	products, err := s.store.ListProducts(ctx, tenantID, activeOnly)
	if err != nil {
		return Menu{}, err
	}
	return Menu{Categories: categories, Products: products}, nil
}

func (s *Service) Products(ctx context.Context, tenantID string, ids []string) (map[string]Product, error) {
	return s.store.GetProducts(ctx, tenantID, ids)
}

func (s *Service) SaveCategory(ctx context.Context, tenantID string, c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.Validation("VALIDATION_ERROR", "Category name is required")
	}
	return s.store.SaveCategory(ctx, tenantID, c)
}

func (s *Service) DeleteCategory(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteCategory(ctx, tenantID, id)
}

func (s *Service) SaveProduct(ctx context.Context, tenantID string, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("VALIDATION_ERROR", "Product name is required")
	}
	if p.Price.IsNegative() {
		return apperr.Validation("VALIDATION_ERROR", "Product price cannot be negative")
	}
	p.Price = p.Price.Round(2)
	return s.store.SaveProduct(ctx, tenantID, p)
}

func (s *Service) DeleteProduct(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteProduct(ctx, tenantID, id)
}

func (s *Service) SetProductImage(ctx context.Context, tenantID, id, url string) error {
	return s.store.SetProductImage(ctx, tenantID, id, url)
}

func (s *Service) SaveOption(ctx context.Context, tenantID string, o *Option) error {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		return apperr.Validation("VALIDATION_ERROR", "Option name is required")
	}
	if o.ExtraPrice.IsNegative() {
		return apperr.Validation("VALIDATION_ERROR", "Option price cannot be negative")
	}
	o.ExtraPrice = o.ExtraPrice.Round(2)
	return s.store.SaveOption(ctx, tenantID, o)
}

func (s *Service) DeleteOption(ctx context.Context, tenantID, id string) error {
	return s.store.DeleteOption(ctx, tenantID, id)
}
