package auth

import "sort"

type Permission string

const (
	PermOrders   Permission = "orders"
	PermPayments Permission = "payments"
	PermCancel   Permission = "cancel"
	PermTransfer Permission = "transfer"
	PermMenu     Permission = "menu"
	PermTables   Permission = "tables"
	PermMembers  Permission = "members"
	PermAccounts Permission = "accounts"
	PermReports  Permission = "reports"
	PermStaff    Permission = "staff"
	PermSettings Permission = "settings"
)

var AllPermissions = []Permission{
	PermOrders, PermPayments, PermCancel, PermTransfer, PermMenu, PermTables,
	PermMembers, PermAccounts, PermReports, PermStaff, PermSettings,
}

func ValidPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}

// Effective resolves stored permission rows. A key with no row is granted.
func Effective(rows map[Permission]bool) map[Permission]bool {
	out := make(map[Permission]bool, len(AllPermissions))
	for _, p := range AllPermissions {
		granted, ok := rows[p]
		out[p] = !ok || granted
	}
	return out
}

// Granted lists the keys that are on, sorted, for embedding in a token.
func Granted(effective map[Permission]bool) []string {
	out := make([]string, 0, len(effective))
	for p, on := range effective {
		if on {
			out = append(out, string(p))
		}
	}
	sort.Strings(out)
	return out
}

// Allows reports whether a token holder may use perm. Admins bypass flags.
func (c *Claims) Allows(perm Permission) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	for _, p := range c.Permissions {
		if p == string(perm) {
			return true
		}
	}
	return false
}
