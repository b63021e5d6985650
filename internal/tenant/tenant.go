package tenant

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

type Tenant struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	IsActive bool     `json:"isActive"`
	Settings Settings `json:"settings"`
}

// Settings is stored as jsonb on the tenant row.
type Settings struct {
	Currency             string          `json:"currency"`
	ServiceChargePercent decimal.Decimal `json:"serviceChargePercent"`
	PointsPerUnit        decimal.Decimal `json:"pointsPerUnit"`
	PointValue           decimal.Decimal `json:"pointValue"`
	MinRedeemPoints      int             `json:"minRedeemPoints"`
	PaperWidth           int             `json:"paperWidth"`
	ReceiptHeader        string          `json:"receiptHeader"`
	ReceiptFooter        string          `json:"receiptFooter"`
	Timezone             string          `json:"timezone"`
}

func DefaultSettings() Settings {
	return Settings{
		Currency:             "TRY",
		ServiceChargePercent: decimal.Zero,
		PointsPerUnit:        decimal.NewFromFloat(0.1),
		PointValue:           decimal.NewFromFloat(0.1),
		MinRedeemPoints:      100,
		PaperWidth:           80,
		ReceiptHeader:        "ADISYON",
		ReceiptFooter:        "Afiyet olsun!",
		Timezone:             "Europe/Istanbul",
	}
}

// ParseSettings overlays stored values on the defaults so that tenants created
// before a setting existed still get a sane value.
func ParseSettings(raw []byte) Settings {
	settings := DefaultSettings()
	if len(raw) == 0 {
		return settings
	}
	_ = json.Unmarshal(raw, &settings)
	if settings.PaperWidth != 58 && settings.PaperWidth != 80 {
		settings.PaperWidth = 80
	}
	if settings.Currency == "" {
		settings.Currency = "TRY"
	}
	if _, err := time.LoadLocation(settings.Timezone); err != nil || settings.Timezone == "" {
		settings.Timezone = "Europe/Istanbul"
	}
	return settings
}

// Validate rejects settings an administrator must not save. Text fields are
// trimmed in place.
func (s *Settings) Validate() error {
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	s.ReceiptHeader = strings.TrimSpace(s.ReceiptHeader)
	s.ReceiptFooter = strings.TrimSpace(s.ReceiptFooter)
	s.Timezone = strings.TrimSpace(s.Timezone)

	invalid := func(field, msg string) error {
		return apperr.Validation("INVALID_SETTINGS", msg).WithDetails(map[string]any{"field": field})
	}
	if len(s.Currency) != 3 {
		return invalid("currency", "Currency must be a three letter code")
	}
	if s.ServiceChargePercent.IsNegative() || s.ServiceChargePercent.GreaterThan(decimal.NewFromInt(100)) {
		return invalid("serviceChargePercent", "Service charge must be between 0 and 100 percent")
	}
	if s.PointsPerUnit.IsNegative() {
		return invalid("pointsPerUnit", "Points per unit must not be negative")
	}
	if s.PointValue.IsNegative() {
		return invalid("pointValue", "Point value must not be negative")
	}
	if s.MinRedeemPoints < 0 {
		return invalid("minRedeemPoints", "Minimum redeemable points must not be negative")
	}
	if s.PaperWidth != 58 && s.PaperWidth != 80 {
		return invalid("paperWidth", "Paper width must be 58 or 80")
	}
	if len([]rune(s.ReceiptHeader)) > 64 || len([]rune(s.ReceiptFooter)) > 64 {
		return invalid("receiptHeader", "Receipt header and footer are limited to 64 characters")
	}
	if s.Timezone == "" {
		return invalid("timezone", "Timezone is required")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return invalid("timezone", "Timezone is not recognised")
	}
	return nil
}

// Location falls back to UTC when the zone database lacks the tenant's zone.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StartOfDay is local midnight of now in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

type Store interface {
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindByID(ctx context.Context, id string) (*Tenant, error)
	UpdateSettings(ctx context.Context, id string, settings Settings) error
}

type contextKey string

const tenantContextKey contextKey = "tenant"

func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey, t)
}

func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantContextKey).(*Tenant)
	return t, ok && t != nil
}
