package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"
	"tableside-order-services/internal/catalog"
	"tableside-order-services/internal/config"
	"tableside-order-services/internal/loyalty"
	"tableside-order-services/internal/staff"
	"tableside-order-services/internal/tenant"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details map[string]any  `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func testTenant() *tenant.Tenant {
	settings := tenant.DefaultSettings()
	settings.Timezone = "UTC"
	settings.ServiceChargePercent = decimal.NewFromInt(10)
	return &tenant.Tenant{ID: "t1", Slug: "kebapci", Name: "Kebapci", IsActive: true, Settings: settings}
}

func withTenant(t *tenant.Tenant, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(tenant.WithTenant(r.Context(), t)))
	})
}

type catalogStore struct {
	products map[string]catalog.Product
}

func (c *catalogStore) ListCategories(context.Context, string, bool) ([]catalog.Category, error) {
	return []catalog.Category{}, nil
}
func (c *catalogStore) SaveCategory(context.Context, string, *catalog.Category) error { return nil }
func (c *catalogStore) DeleteCategory(context.Context, string, string) error          { return nil }
func (c *catalogStore) ListProducts(context.Context, string, bool) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	return out, nil
}
func (c *catalogStore) GetProducts(_ context.Context, _ string, ids []string) (map[string]catalog.Product, error) {
	out := make(map[string]catalog.Product)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
func (c *catalogStore) SaveProduct(context.Context, string, *catalog.Product) error { return nil }
func (c *catalogStore) DeleteProduct(context.Context, string, string) error         { return nil }
func (c *catalogStore) SetProductImage(context.Context, string, string, string) error {
	return nil
}
func (c *catalogStore) SaveOption(context.Context, string, *catalog.Option) error { return nil }
func (c *catalogStore) DeleteOption(context.Context, string, string) error       { return nil }

type staffStore struct {
	records map[string]*staff.Record
}

func (s *staffStore) List(context.Context, string) ([]staff.Member, error) { return nil, nil }
func (s *staffStore) Get(_ context.Context, _ string, id string) (*staff.Record, error) {
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return nil, apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
}
func (s *staffStore) GetByUsername(_ context.Context, _ string, username string) (*staff.Record, error) {
	for _, rec := range s.records {
		if rec.Username == username {
			return rec, nil
		}
	}
	return nil, apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
}
func (s *staffStore) Create(context.Context, string, *staff.Record, map[auth.Permission]bool) error {
	return nil
}
func (s *staffStore) Update(context.Context, string, *staff.Record, map[auth.Permission]bool) error {
	return nil
}
func (s *staffStore) Delete(context.Context, string, string) error { return nil }

type tenantStore struct {
	saved *tenant.Settings
}

func (s *tenantStore) FindBySlug(context.Context, string) (*tenant.Tenant, error) { return testTenant(), nil }
func (s *tenantStore) FindByID(context.Context, string) (*tenant.Tenant, error)   { return testTenant(), nil }
func (s *tenantStore) UpdateSettings(_ context.Context, _ string, settings tenant.Settings) error {
	s.saved = &settings
	return nil
}

func TestWriteErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "validation", err: apperr.Validation("INVALID_TABLE", "bad"), status: http.StatusBadRequest, code: "INVALID_TABLE"},
		{name: "conflict keeps details", err: apperr.Conflict("ORDER_CHANGED", "changed").WithDetails(map[string]any{"version": 3}), status: http.StatusConflict, code: "ORDER_CHANGED"},
		{name: "wrapped not found", err: errors.Join(errors.New("ctx"), apperr.NotFound("ORDER_NOT_FOUND", "missing")), status: http.StatusNotFound, code: "ORDER_NOT_FOUND"},
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}
	h := &Handler{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tc.err)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Success || env.Error != tc.code {
				t.Fatalf("expected error code %s, got %+v", tc.code, env)
			}
		})
	}
}

func TestPINLoginIssuesTenantToken(t *testing.T) {
	pinHash, err := bcrypt.GenerateFromPassword([]byte("4821"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hash := string(pinHash)
	store := &staffStore{records: map[string]*staff.Record{
		"s1": {Member: staff.Member{ID: "s1", Username: "ayse", DisplayName: "Ayse", Role: auth.RoleStaff, IsActive: true,
			Permissions: map[auth.Permission]bool{auth.PermReports: false}}, PINHash: &hash},
	}}
	h := &Handler{
		Config: config.Config{JWTSecret: "secret", JWTExpirySeconds: 3600},
		Staff:  staff.NewService(store, nil),
		Now:    func() time.Time { return time.Now() },
	}
	router := chi.NewRouter()
	router.Post("/auth/pin-login", h.AuthPINLogin)
	server := withTenant(testTenant(), router)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{name: "wrong pin", body: `{"username":"ayse","pin":"0000"}`, status: http.StatusUnauthorized},
		{name: "malformed pin", body: `{"username":"ayse","pin":"12"}`, status: http.StatusBadRequest},
		{name: "empty body", body: ``, status: http.StatusBadRequest},
		{name: "valid", body: `{"username":"ayse","pin":"4821"}`, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/pin-login", strings.NewReader(tc.body)))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.status != http.StatusOK {
				return
			}
			var session sessionResponse
			if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &session); err != nil {
				t.Fatalf("decode session: %v", err)
			}
			claims, err := auth.VerifyAccessToken(session.AccessToken, "secret")
			if err != nil {
				t.Fatalf("verify token: %v", err)
			}
			if claims.TenantID != "t1" || claims.StaffID != "s1" {
				t.Fatalf("unexpected claims %+v", claims)
			}
			if claims.Allows(auth.PermReports) || !claims.Allows(auth.PermOrders) {
				t.Fatalf("unexpected permissions %v", claims.Permissions)
			}
		})
	}
}

func TestLoyaltyQuoteUsesCatalogPrices(t *testing.T) {
	store := &catalogStore{products: map[string]catalog.Product{
		"p-adana": {ID: "p-adana", Name: "Adana", Price: decimal.NewFromInt(250), IsActive: true},
		"p-old":   {ID: "p-old", Name: "Old", Price: decimal.NewFromInt(10), IsActive: false},
	}}
	h := &Handler{Catalog: catalog.NewService(store)}
	router := chi.NewRouter()
	router.Post("/quote", h.PublicLoyaltyQuote)
	server := withTenant(testTenant(), router)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/quote",
		strings.NewReader(`{"items":[{"productId":"p-adana","quantity":2}]}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var quote quoteResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &quote); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if !quote.Subtotal.Equal(decimal.NewFromInt(500)) || !quote.ServiceCharge.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if !quote.Loyalty.Charged.Equal(decimal.NewFromInt(550)) {
		t.Fatalf("expected charged 550, got %s", quote.Loyalty.Charged)
	}

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/quote",
		strings.NewReader(`{"items":[{"productId":"p-old","quantity":1}]}`)))
	if rec.Code != http.StatusBadRequest || decodeEnvelope(t, rec).Error != "PRODUCT_UNAVAILABLE" {
		t.Fatalf("expected PRODUCT_UNAVAILABLE, got %d: %s", rec.Code, rec.Body.String())
	}
}

type memberStore struct {
	loyalty.Store
	member *loyalty.Member
}

func (s memberStore) FindByPhone(_ context.Context, _ string, phone string) (*loyalty.Member, error) {
	if s.member == nil || s.member.Phone != phone {
		return nil, apperr.NotFound("MEMBER_NOT_FOUND", "Member not found")
	}
	return s.member, nil
}

func TestLoyaltyQuoteHidesMemberProfile(t *testing.T) {
	visited := time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC)
	member := &loyalty.Member{
		ID: "m1", Name: "Ayse", Phone: "05321234567", TotalPoints: 900, UsedPoints: 200,
		TotalSpent: decimal.NewFromInt(4200), VisitCount: 17, LastVisitAt: &visited,
	}
	store := &catalogStore{products: map[string]catalog.Product{
		"p-adana": {ID: "p-adana", Name: "Adana", Price: decimal.NewFromInt(250), IsActive: true},
	}}
	h := &Handler{Catalog: catalog.NewService(store), Loyalty: loyalty.NewService(memberStore{member: member}, nil)}
	router := chi.NewRouter()
	router.Post("/quote", h.PublicLoyaltyQuote)
	router.Get("/members/{phone}", h.PublicMemberLookup)
	server := withTenant(testTenant(), router)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(`{"memberPhone":"0532 123 45 67","items":[{"productId":"p-adana","quantity":1}]}`)),
		httptest.NewRequest(http.MethodGet, "/members/05321234567", nil),
	}
	for _, req := range requests {
		t.Run(req.Method+" "+req.URL.Path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			body := rec.Body.String()
			for _, leaked := range []string{"05321234567", "totalSpent", "visitCount", "lastVisitAt", "4200"} {
				if strings.Contains(body, leaked) {
					t.Fatalf("response exposes %q: %s", leaked, body)
				}
			}
			if !strings.Contains(body, `"availablePoints":700`) || !strings.Contains(body, `"name":"Ayse"`) {
				t.Fatalf("expected name and available points, got %s", body)
			}
		})
	}
}

func TestSettingsUpdateOverlaysAndValidates(t *testing.T) {
	store := &tenantStore{}
	h := &Handler{Tenants: store}
	router := chi.NewRouter()
	router.Put("/settings", h.SettingsUpdate)
	server := withTenant(testTenant(), router)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"paperWidth":72}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if store.saved != nil {
		t.Fatalf("invalid settings must not be saved")
	}

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"paperWidth":58,"serviceChargePercent":"12.5"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.saved == nil || store.saved.PaperWidth != 58 || !store.saved.ServiceChargePercent.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected saved settings %+v", store.saved)
	}
	if store.saved.Currency != "TRY" || store.saved.ReceiptFooter != "Afiyet olsun!" {
		t.Fatalf("untouched fields should keep their values, got %+v", store.saved)
	}
}

func TestReadTable(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{raw: "12", ok: true},
		{raw: "0", ok: true},
		{raw: "-1", ok: false},
		{raw: "abc", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			router := chi.NewRouter()
			var got error
			router.Get("/tables/{number}", func(w http.ResponseWriter, r *http.Request) {
				_, got = readTable(r)
			})
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tables/"+tc.raw, nil))
			if (got == nil) != tc.ok {
				t.Fatalf("readTable(%q) error = %v", tc.raw, got)
			}
		})
	}
}
