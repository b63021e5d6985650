package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	claims := Claims{StaffID: "s1", TenantID: "t1", Role: RoleStaff, Name: "Elif", Permissions: []string{"orders"}}
	token, err := IssueAccessToken(claims, "secret", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := VerifyAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.StaffID != "s1" || got.TenantID != "t1" || got.Role != RoleStaff {
		t.Fatalf("unexpected claims %+v", got)
	}
	if _, err := VerifyAccessToken(token, "other"); err == nil {
		t.Fatalf("expected signature failure")
	}

	expired, _ := IssueAccessToken(claims, "secret", time.Minute, time.Now().Add(-time.Hour))
	if _, err := VerifyAccessToken(expired, "secret"); err == nil {
		t.Fatalf("expected expiry failure")
	}
}

func TestParseBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Basic abc":  "",
		"Bearer":     "",
		"":           "",
		"Bearer a b": "",
	}
	for header, want := range cases {
		if got := ParseBearerToken(header); got != want {
			t.Fatalf("%q: expected %q, got %q", header, want, got)
		}
	}
}

func TestEffectiveDefaultsToGranted(t *testing.T) {
	eff := Effective(map[Permission]bool{PermPayments: false, PermCancel: true})
	if eff[PermPayments] {
		t.Fatalf("explicit false must be kept")
	}
	if !eff[PermCancel] || !eff[PermReports] {
		t.Fatalf("missing rows must be granted")
	}

	staff := &Claims{Role: RoleStaff, Permissions: Granted(eff)}
	if staff.Allows(PermPayments) || !staff.Allows(PermOrders) {
		t.Fatalf("unexpected staff permissions %v", staff.Permissions)
	}
	admin := &Claims{Role: RoleAdmin}
	if !admin.Allows(PermPayments) {
		t.Fatalf("admin bypasses flags")
	}
}
