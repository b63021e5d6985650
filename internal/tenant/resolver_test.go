package tenant

import (
	"context"
	"net/url"
	"testing"

	"tableside-order-services/internal/apperr"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	tenants map[string]*Tenant
	lookups int
}

func (f *fakeStore) FindBySlug(_ context.Context, slug string) (*Tenant, error) {
	f.lookups++
	t, ok := f.tenants[slug]
	if !ok {
		return nil, apperr.NotFound("TENANT_NOT_FOUND", "Business not found")
	}
	return t, nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*Tenant, error) {
	for _, t := range f.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperr.NotFound("TENANT_NOT_FOUND", "Business not found")
}

func (f *fakeStore) UpdateSettings(context.Context, string, Settings) error { return nil }

func TestSlugFromHost(t *testing.T) {
	cases := []struct {
		name string
		host string
		slug string
		ok   bool
	}{
		{name: "plain subdomain", host: "kebapci.adisyon.app", slug: "kebapci", ok: true},
		{name: "with port", host: "kebapci.adisyon.app:8443", slug: "kebapci", ok: true},
		{name: "upper case", host: "KEBAPCI.Adisyon.App", slug: "kebapci", ok: true},
		{name: "apex domain", host: "adisyon.app", ok: false},
		{name: "nested subdomain", host: "a.b.adisyon.app", ok: false},
		{name: "foreign domain", host: "kebapci.example.com", ok: false},
		{name: "localhost", host: "localhost:8086", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slug, ok := SlugFromHost(tc.host, "adisyon.app")
			if ok != tc.ok || slug != tc.slug {
				t.Fatalf("expected (%q,%v), got (%q,%v)", tc.slug, tc.ok, slug, ok)
			}
		})
	}
}

func TestResolverOverrideOnlyOutsideProduction(t *testing.T) {
	store := &fakeStore{tenants: map[string]*Tenant{
		"demo": {ID: "t1", Slug: "demo", IsActive: true},
	}}
	query := url.Values{"tenant": []string{"demo"}}

	dev := NewResolver(store, "adisyon.app", "tenant", true)
	got, err := dev.Resolve(context.Background(), "localhost:8086", query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "t1" {
		t.Fatalf("expected tenant t1, got %s", got.ID)
	}

	prod := NewResolver(store, "adisyon.app", "tenant", false)
	if _, err := prod.Resolve(context.Background(), "localhost:8086", query); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found in production, got %v", err)
	}
}

func TestResolverCachesAndRejectsInactive(t *testing.T) {
	store := &fakeStore{tenants: map[string]*Tenant{
		"open":   {ID: "t1", Slug: "open", IsActive: true},
		"closed": {ID: "t2", Slug: "closed", IsActive: false},
	}}
	r := NewResolver(store, "adisyon.app", "", false)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), "open.adisyon.app", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.lookups != 1 {
		t.Fatalf("expected 1 store lookup, got %d", store.lookups)
	}

	if _, err := r.Resolve(context.Background(), "closed.adisyon.app", nil); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for inactive tenant, got %v", err)
	}
}

func TestParseSettingsDefaults(t *testing.T) {
	s := ParseSettings([]byte(`{"paperWidth": 72, "serviceChargePercent": "10"}`))
	if s.PaperWidth != 80 {
		t.Fatalf("expected invalid paper width to fall back to 80, got %d", s.PaperWidth)
	}
	if s.ServiceChargePercent.String() != "10" {
		t.Fatalf("expected service charge 10, got %s", s.ServiceChargePercent)
	}
	if s.MinRedeemPoints != 100 {
		t.Fatalf("expected default min redeem points, got %d", s.MinRedeemPoints)
	}
}

func TestSettingsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{name: "defaults pass", mutate: func(*Settings) {}},
		{name: "lowercase currency is normalised", mutate: func(s *Settings) { s.Currency = " eur " }},
		{name: "short currency", mutate: func(s *Settings) { s.Currency = "TL" }, field: "currency"},
		{name: "service charge above 100", mutate: func(s *Settings) { s.ServiceChargePercent = decimal.NewFromInt(101) }, field: "serviceChargePercent"},
		{name: "negative point value", mutate: func(s *Settings) { s.PointValue = decimal.NewFromInt(-1) }, field: "pointValue"},
		{name: "paper width", mutate: func(s *Settings) { s.PaperWidth = 72 }, field: "paperWidth"},
		{name: "unknown zone", mutate: func(s *Settings) { s.Timezone = "Mars/Olympus" }, field: "timezone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			s.Timezone = "UTC"
			tc.mutate(&s)
			err := s.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := apperr.As(err)
			if !ok || appErr.Details["field"] != tc.field {
				t.Fatalf("expected error on %s, got %v", tc.field, err)
			}
		})
	}
}
