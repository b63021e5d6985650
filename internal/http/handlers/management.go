package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tableside-order-services/internal/accounts"
	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/floor"
	"tableside-order-services/internal/loyalty"
	"tableside-order-services/internal/reports"
	"tableside-order-services/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) FloorLayout(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	layout, err := h.Floor.Layout(r.Context(), t.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, layout)
}

func (h *Handler) AreaSave(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var a floor.Area
	if err := decodeJSON(r, &a); err != nil {
		h.writeError(w, r, err)
		return
	}
	a.ID = readPathString(r, "id")
	if err := h.Floor.SaveArea(r.Context(), t.ID, &a); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, a)
}

func (h *Handler) AreaDelete(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Floor.DeleteArea(r.Context(), t.ID, readPathString(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}

func (h *Handler) FloorTableSave(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var table floor.Table
	if err := decodeJSON(r, &table); err != nil {
		h.writeError(w, r, err)
		return
	}
	table.ID = readPathString(r, "id")
	if err := h.Floor.SaveTable(r.Context(), t.ID, &table); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, table)
}

func (h *Handler) FloorTableDelete(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Floor.DeleteTable(r.Context(), t.ID, readPathString(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}

func (h *Handler) MembersList(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	members, err := h.Loyalty.List(r.Context(), t.ID, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, members)
}

type memberDetail struct {
	*loyalty.Member
	AvailablePoints int                   `json:"availablePoints"`
	Transactions    []loyalty.Transaction `json:"transactions"`
}

func (h *Handler) MemberDetail(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id := readPathString(r, "id")
	m, err := h.Loyalty.Get(r.Context(), t.ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	txs, err := h.Loyalty.Transactions(r.Context(), t.ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, memberDetail{Member: m, AvailablePoints: m.AvailablePoints(), Transactions: txs})
}

func (h *Handler) MemberCreate(w http.ResponseWriter, r *http.Request) {
	h.PublicMemberRegister(w, r)
}

type adjustPointsPayload struct {
	Points      json.Number `json:"points"`
	Description string      `json:"description"`
}

func (h *Handler) MemberAdjustPoints(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload adjustPointsPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	delta, err := loyalty.ParseAdjustment(payload.Points.String())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.Loyalty.Adjust(r.Context(), t.ID, readPathString(r, "id"), delta, payload.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, m)
}

func (h *Handler) AccountsList(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.Accounts.List(r.Context(), t.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, list)
}

type accountDetail struct {
	*accounts.Account
	Transactions []accounts.Transaction `json:"transactions"`
}

func (h *Handler) AccountDetail(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id := readPathString(r, "id")
	acc, err := h.Accounts.Get(r.Context(), t.ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	txs, err := h.Accounts.Transactions(r.Context(), t.ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, accountDetail{Account: acc, Transactions: txs})
}

func (h *Handler) AccountCreate(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in accounts.Account
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	acc, err := h.Accounts.Create(r.Context(), t.ID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, acc)
}

func (h *Handler) AccountUpdate(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in accounts.Account
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	in.ID = readPathString(r, "id")
	acc, err := h.Accounts.Update(r.Context(), t.ID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, acc)
}

type collectPayload struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

func (h *Handler) AccountCollect(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload collectPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := accounts.ParseAmount(payload.Amount.String())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	acc, err := h.Accounts.Collect(r.Context(), t.ID, readPathString(r, "id"), amount, payload.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, acc)
}

const (
	defaultActivityLimit = 200
	maxActivityLimit     = 1000
)

// ActivityList reads the log for a date range (default today) and optionally
// one table.
func (h *Handler) ActivityList(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	rng, err := reports.ParseRange(q.Get("from"), q.Get("to"), t.Settings.Location(), h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter := activity.Filter{From: rng.From, To: rng.To, Limit: defaultActivityLimit}
	if raw := strings.TrimSpace(q.Get("table")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, apperr.Validation("INVALID_TABLE", "Table number is not valid"))
			return
		}
		filter.TableNumber = &n
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, apperr.Validation("INVALID_LIMIT", "Limit must be a positive number"))
			return
		}
		if n > maxActivityLimit {
			n = maxActivityLimit
		}
		filter.Limit = n
	}
	entries, err := h.Activity.List(r.Context(), t.ID, filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, entries)
}

func (h *Handler) ReportsSummary(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	rng, err := reports.ParseRange(q.Get("from"), q.Get("to"), t.Settings.Location(), h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.Reports.Summary(r.Context(), t.ID, rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, summary)
}

func (h *Handler) SettingsGet(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, t.Settings)
}

// SettingsUpdate overlays the submitted fields on the current settings, so a
// partial body leaves the rest unchanged.
func (h *Handler) SettingsUpdate(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	settings := t.Settings
	if err := decodeJSON(r, &settings); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := settings.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Tenants.UpdateSettings(r.Context(), t.ID, settings); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.Resolver != nil {
		h.Resolver.Invalidate(t.Slug)
	}
	h.logger().Info("tenant settings updated", zap.String("tenantId", t.ID))
	response.Success(w, settings)
}
