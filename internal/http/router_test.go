package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"
	"tableside-order-services/internal/config"
	"tableside-order-services/internal/http/handlers"
	"tableside-order-services/internal/staff"
	"tableside-order-services/internal/tenant"

	"go.uber.org/zap"
)

const secret = "router-secret"

type tenants struct{}

func (tenants) FindBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if slug != "kebapci" {
		return nil, apperr.NotFound("TENANT_NOT_FOUND", "Business not found")
	}
	return &tenant.Tenant{ID: "t1", Slug: slug, IsActive: true, Settings: tenant.DefaultSettings()}, nil
}

func (tenants) FindByID(context.Context, string) (*tenant.Tenant, error) { return nil, nil }

func (tenants) UpdateSettings(context.Context, string, tenant.Settings) error { return nil }

type lookup map[string]*staff.Record

func (l lookup) Get(_ context.Context, _ string, id string) (*staff.Record, error) {
	if rec, ok := l[id]; ok {
		return rec, nil
	}
	return nil, apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
}

func TestRouterGuards(t *testing.T) {
	h := &handlers.Handler{
		Logger:   zap.NewNop(),
		Config:   config.Config{Env: "production", JWTSecret: secret},
		Tenants:  tenants{},
		Resolver: tenant.NewResolver(tenants{}, "tableside.app", "tenant", false),
	}
	staffRecords := lookup{
		"waiter": {Member: staff.Member{ID: "waiter", Role: auth.RoleStaff, IsActive: true,
			Permissions: map[auth.Permission]bool{auth.PermReports: false, auth.PermSettings: false}}},
		"boss": {Member: staff.Member{ID: "boss", Role: auth.RoleAdmin, IsActive: true}},
	}
	router := NewRouter(h, staffRecords, nil)

	bearer := func(staffID string) string {
		tok, err := auth.IssueAccessToken(auth.Claims{StaffID: staffID, TenantID: "t1"}, secret, time.Hour, time.Now())
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		return "Bearer " + tok
	}

	cases := []struct {
		name   string
		host   string
		path   string
		auth   string
		status int
	}{
		{name: "health needs no tenant", host: "localhost", path: "/health", status: http.StatusOK},
		{name: "unknown tenant", host: "nobody.tableside.app", path: "/api/settings", status: http.StatusNotFound},
		{name: "missing token", host: "kebapci.tableside.app", path: "/api/settings", status: http.StatusUnauthorized},
		{name: "flag turned off", host: "kebapci.tableside.app", path: "/api/settings", auth: bearer("waiter"), status: http.StatusForbidden},
		{name: "reports turned off", host: "kebapci.tableside.app", path: "/api/activity", auth: bearer("waiter"), status: http.StatusForbidden},
		{name: "admin bypasses flags", host: "kebapci.tableside.app", path: "/api/settings", auth: bearer("boss"), status: http.StatusOK},
		{name: "staff list is admin only", host: "kebapci.tableside.app", path: "/api/staff", auth: bearer("waiter"), status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Host = tc.host
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}
