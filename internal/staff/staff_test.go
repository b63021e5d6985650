package staff

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	records map[string]*Record
	perms   map[string]map[auth.Permission]bool
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*Record{}, perms: map[string]map[auth.Permission]bool{}}
}

func (m *memStore) List(context.Context, string) ([]Member, error) {
	out := make([]Member, 0, len(m.records))
	for _, r := range m.records {
		mem := r.Member
		mem.Permissions = m.perms[r.ID]
		out = append(out, mem)
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, _ string, id string) (*Record, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
	}
	cp := *r
	cp.Permissions = m.perms[id]
	return &cp, nil
}

func (m *memStore) GetByUsername(ctx context.Context, tenantID, username string) (*Record, error) {
	for id, r := range m.records {
		if strings.EqualFold(r.Username, username) {
			return m.Get(ctx, tenantID, id)
		}
	}
	return nil, apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
}

func (m *memStore) Create(_ context.Context, _ string, r *Record, perms map[auth.Permission]bool) error {
	for _, existing := range m.records {
		if existing.Username == r.Username {
			return apperr.Conflict("USERNAME_TAKEN", "Username is already taken")
		}
	}
	r.ID = "s-" + r.Username
	cp := *r
	m.records[r.ID] = &cp
	if perms != nil {
		m.perms[r.ID] = perms
	}
	return nil
}

func (m *memStore) Update(_ context.Context, _ string, r *Record, perms map[auth.Permission]bool) error {
	if _, ok := m.records[r.ID]; !ok {
		return apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
	}
	cp := *r
	m.records[r.ID] = &cp
	if perms != nil {
		m.perms[r.ID] = perms
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, _ string, id string) error {
	if _, ok := m.records[id]; !ok {
		return apperr.NotFound("STAFF_NOT_FOUND", "Staff member not found")
	}
	delete(m.records, id)
	return nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(store, nil)
	svc.cost = bcrypt.MinCost
	return svc, store
}

var admin = &auth.Claims{StaffID: "s-boss", TenantID: "t1", Role: auth.RoleAdmin}

func strPtr(s string) *string { return &s }

func validInput() Input {
	return Input{
		Username: "elif_k",
		Password: strPtr("secret1"),
		PIN:      strPtr("1234"),
		WorkDays: []string{"Friday", "monday", "friday"},
	}
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		patch func(*Input)
		field string
	}{
		{name: "short username", patch: func(in *Input) { in.Username = "e" }, field: "username"},
		{name: "username symbols", patch: func(in *Input) { in.Username = "elif.k" }, field: "username"},
		{name: "short password", patch: func(in *Input) { in.Password = strPtr("12345") }, field: "password"},
		{name: "missing password", patch: func(in *Input) { in.Password = nil }, field: "password"},
		{name: "pin letters", patch: func(in *Input) { in.PIN = strPtr("12a4") }, field: "pin"},
		{name: "pin too long", patch: func(in *Input) { in.PIN = strPtr("1234567") }, field: "pin"},
		{name: "no work days", patch: func(in *Input) { in.WorkDays = nil }, field: "workDays"},
		{name: "unknown work day", patch: func(in *Input) { in.WorkDays = []string{"funday"} }, field: "workDays"},
		{name: "bad shift", patch: func(in *Input) { in.ShiftStart = "25:00" }, field: "shift"},
		{name: "bad role", patch: func(in *Input) { in.Role = "owner" }, field: "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService()
			in := validInput()
			tc.patch(&in)
			_, err := svc.Create(context.Background(), "t1", admin, in)
			e, ok := apperr.As(err)
			if !ok || e.Kind != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if e.Details["field"] != tc.field {
				t.Fatalf("expected field %s, got %v", tc.field, e.Details["field"])
			}
			if len(store.records) != 0 {
				t.Fatalf("validation failure must not write")
			}
		})
	}
}

func TestCreateHashesAndHidesSecrets(t *testing.T) {
	svc, store := newTestService()
	m, err := svc.Create(context.Background(), "t1", admin, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.Join(m.WorkDays, ",") != "monday,friday" {
		t.Fatalf("expected normalized work days, got %v", m.WorkDays)
	}
	if !m.HasPIN || m.Role != auth.RoleStaff {
		t.Fatalf("unexpected member %+v", m)
	}
	rec := store.records[m.ID]
	if rec.PINHash == nil || *rec.PINHash == "1234" || rec.PasswordHash == "secret1" {
		t.Fatalf("credentials must be stored hashed")
	}
	body, _ := json.Marshal(m)
	if strings.Contains(string(body), "1234") || strings.Contains(string(body), "secret1") || strings.Contains(string(body), "$2a$") {
		t.Fatalf("member JSON leaks credentials: %s", body)
	}
}

func TestPrivilegedActionsRequireAdmin(t *testing.T) {
	svc, _ := newTestService()
	payload, _ := json.Marshal(validInput())
	waiter := &auth.Claims{StaffID: "s-w", TenantID: "t1", Role: auth.RoleStaff, Permissions: []string{"staff"}}

	for _, action := range []string{ActionCreate, ActionUpdate, ActionDelete} {
		if _, err := svc.Execute(context.Background(), "t1", waiter, action, payload); !apperr.Is(err, apperr.KindForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", action, err)
		}
		if _, err := svc.Execute(context.Background(), "t1", nil, action, payload); !apperr.Is(err, apperr.KindUnauthorized) {
			t.Fatalf("%s: expected unauthorized, got %v", action, err)
		}
	}
	if _, err := svc.Execute(context.Background(), "t1", admin, "promote", payload); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected unknown action to be rejected, got %v", err)
	}
}

func TestVerifyPIN(t *testing.T) {
	svc, _ := newTestService()
	in := validInput()
	in.Permissions = map[auth.Permission]bool{auth.PermPayments: false}
	created, err := svc.Create(context.Background(), "t1", admin, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"username": "ELIF_K", "pin": "1234"})
	out, err := svc.Execute(context.Background(), "t1", nil, ActionVerifyPIN, payload)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	m := out.(*Member)
	if m.ID != created.ID || m.Permissions[auth.PermPayments] || !m.Permissions[auth.PermOrders] {
		t.Fatalf("unexpected member %+v", m)
	}
	claims := Claims("t1", m)
	if claims.Allows(auth.PermPayments) || !claims.Allows(auth.PermCancel) {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := svc.VerifyPIN(context.Background(), "t1", "elif_k", "9999"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for wrong pin, got %v", err)
	}
	if _, err := svc.VerifyPIN(context.Background(), "t1", "nobody", "1234"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}

	off := false
	if _, err := svc.Update(context.Background(), "t1", admin, Input{ID: created.ID, Username: "elif_k", WorkDays: []string{"monday"}, IsActive: &off}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.VerifyPIN(context.Background(), "t1", "elif_k", "1234"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("disabled staff must be refused, got %v", err)
	}
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.Delete(context.Background(), "t1", admin, admin.StaffID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
