package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"
	"tableside-order-services/internal/staff"
	"tableside-order-services/internal/tenant"
)

type contextKey string

const claimsContextKey contextKey = "staffClaims"

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return c, ok && c != nil
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	writeAuthErrorDebug(w, status, code, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, code, message, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}
	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// Tenant resolves the business from the request host (or the override query
// parameter outside production) and stores it on the context.
func Tenant(resolver *tenant.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := resolver.Resolve(r.Context(), r.Host, r.URL.Query())
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) {
					writeAuthErrorDebug(w, appErr.StatusCode, appErr.Code, appErr.Message, err.Error())
					return
				}
				writeAuthErrorDebug(w, http.StatusBadGateway, "TENANT_LOOKUP_FAILED", "Business could not be loaded", err.Error())
				return
			}
			noteTenant(r.Context(), t)
			next.ServeHTTP(w, r.WithContext(tenant.WithTenant(r.Context(), t)))
		})
	}
}

// StaffLookup reloads the staff row so that deactivation, role changes and
// permission edits apply to tokens already issued.
type StaffLookup interface {
	Get(ctx context.Context, tenantID, id string) (*staff.Record, error)
}

// StaffAuth verifies the bearer token (or ?token= for websocket upgrades),
// checks it belongs to the resolved tenant and refreshes role and permissions
// from the store.
func StaffAuth(secret string, lookup StaffLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get("token"))
			}
			claims, err := auth.VerifyAccessToken(token, secret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required", err.Error())
				return
			}

			t, ok := tenant.FromContext(r.Context())
			if !ok || t.ID != claims.TenantID {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Token does not belong to this business")
				return
			}

			if lookup != nil {
				rec, err := lookup.Get(r.Context(), claims.TenantID, claims.StaffID)
				if err != nil {
					if apperr.Is(err, apperr.KindNotFound) {
						writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff account no longer exists")
						return
					}
					writeAuthErrorDebug(w, http.StatusBadGateway, "REMOTE_ERROR", "Staff account could not be loaded", err.Error())
					return
				}
				if !rec.IsActive {
					writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Staff account is disabled")
					return
				}
				claims.Role = rec.Role
				claims.Name = rec.DisplayName
				claims.Permissions = auth.Granted(auth.Effective(rec.Permissions))
			}

			noteStaff(r.Context(), claims.StaffID)
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func RequirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
				return
			}
			if !claims.Allows(perm) {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
				return
			}
			if claims.Role != auth.RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Administrator access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
