package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/auth"
	"tableside-order-services/internal/staff"
	"tableside-order-services/pkg/response"

	"go.uber.org/zap"
)

type pinLoginPayload struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type passwordLoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string        `json:"accessToken"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	Staff       *staff.Member `json:"staff"`
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, tenantID string, m *staff.Member) {
	now := h.now()
	ttl := h.Config.JWTExpiry()
	token, err := auth.IssueAccessToken(staff.Claims(tenantID, m), h.Config.JWTSecret, ttl, now)
	if err != nil {
		h.writeError(w, r, apperr.Remote("Failed to issue session", err))
		return
	}
	h.logger().Info("staff signed in", zap.String("tenantId", tenantID), zap.String("staffId", m.ID))
	response.Success(w, sessionResponse{AccessToken: token, ExpiresAt: now.Add(ttl), Staff: m})
}

func (h *Handler) AuthPINLogin(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload pinLoginPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.Staff.VerifyPIN(r.Context(), t.ID, payload.Username, payload.PIN)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.issueSession(w, r, t.ID, m)
}

func (h *Handler) AuthPasswordLogin(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload passwordLoginPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.Staff.VerifyPassword(r.Context(), t.ID, payload.Username, payload.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.issueSession(w, r, t.ID, m)
}

// AuthMe echoes the caller's claims as refreshed by the auth middleware.
func (h *Handler) AuthMe(w http.ResponseWriter, r *http.Request) {
	claims, err := currentStaff(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]any{
		"staffId":     claims.StaffID,
		"tenantId":    claims.TenantID,
		"role":        claims.Role,
		"name":        claims.Name,
		"permissions": claims.Permissions,
	})
}

type staffActionPayload struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func (h *Handler) StaffList(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	claims, err := currentStaff(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	members, err := h.Staff.List(r.Context(), t.ID, claims)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, members)
}

// StaffAction runs create, update, delete or verify_pin. The staff service
// decides which actions need an administrator.
func (h *Handler) StaffAction(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	claims, err := currentStaff(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload staffActionPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(payload.Payload) == 0 {
		payload.Payload = json.RawMessage("{}")
	}
	result, err := h.Staff.Execute(r.Context(), t.ID, claims, payload.Action, payload.Payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}
