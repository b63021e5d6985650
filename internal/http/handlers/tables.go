package handlers

import (
	"net/http"

	"tableside-order-services/internal/cart"
	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/tenant"
	"tableside-order-services/pkg/response"
)

func (h *Handler) TablesList(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tables, err := h.Orders.OpenTables(r.Context(), t.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, tables)
}

func (h *Handler) TableDetail(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	table, err := h.Orders.TableDetail(r.Context(), t.ID, number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, table)
}

// TablesClosedToday lists tables closed since local midnight in the tenant's
// zone.
func (h *Handler) TablesClosedToday(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	since := tenant.StartOfDay(h.now(), t.Settings.Location())
	closed, err := h.Orders.ClosedTablesToday(r.Context(), t.ID, since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, closed)
}

type submitOrderPayload struct {
	DisplayName string             `json:"displayName"`
	Note        string             `json:"note"`
	Items       []cart.LineRequest `json:"items"`
}

func (h *Handler) TableSubmitOrder(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload submitOrderPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.Catalog.Products(r.Context(), t.ID, cart.ProductIDs(payload.Items))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	draft, err := cart.BuildDraft(products, payload.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.Submit(r.Context(), t.ID, actor, orders.StaffOrder{
		Table:       number,
		DisplayName: payload.DisplayName,
		Note:        payload.Note,
	}, draft)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, o)
}

type lineRefPayload struct {
	Version int `json:"version"`
}

func (h *Handler) TableCancelItem(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload lineRefPayload
	if err := decodeOptionalJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.CancelItem(r.Context(), t.ID, actor, number, orders.LineRef{
		LineID:  readPathString(r, "lineId"),
		Version: payload.Version,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, o)
}

type editItemPayload struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
	Version  int    `json:"version"`
}

func (h *Handler) TableEditItem(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload editItemPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.EditItem(r.Context(), t.ID, actor, number, orders.ItemEdit{
		LineRef:  orders.LineRef{LineID: readPathString(r, "lineId"), Version: payload.Version},
		Quantity: payload.Quantity,
		Note:     payload.Note,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, o)
}

func (h *Handler) TableCancelAll(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cancelled, err := h.Orders.CancelAll(r.Context(), t.ID, actor, number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, cancelled)
}

type paymentPayload struct {
	PaymentType     string   `json:"paymentType"`
	DiscountPercent int      `json:"discountPercent"`
	LineIDs         []string `json:"lineIds"`
}

func (p paymentPayload) payment() orders.Payment {
	return orders.Payment{Method: p.PaymentType, DiscountPercent: p.DiscountPercent}
}

func (h *Handler) TablePay(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload paymentPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	settlement, err := h.Orders.PayAll(r.Context(), t.ID, actor, number, payload.payment())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, settlement)
}

func (h *Handler) TablePaySelected(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload paymentPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	settlement, err := h.Orders.PaySelected(r.Context(), t.ID, actor, number, payload.LineIDs, payload.payment())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, settlement)
}

type selectionPayload struct {
	LineIDs []string `json:"lineIds"`
}

func (h *Handler) TableCancelSelected(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload selectionPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.Orders.CancelSelected(r.Context(), t.ID, actor, number, payload.LineIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

type transferPayload struct {
	To      int      `json:"to"`
	LineIDs []string `json:"lineIds"`
}

func (h *Handler) TableTransfer(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload transferPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	moved, err := h.Orders.TransferTable(r.Context(), t.ID, actor, number, payload.To)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, moved)
}

func (h *Handler) TableTransferItems(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload transferPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	moved, err := h.Orders.TransferItems(r.Context(), t.ID, actor, number, payload.To, payload.LineIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, moved)
}

type accountTransferPayload struct {
	AccountID string `json:"accountId"`
}

func (h *Handler) TableTransferToAccount(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload accountTransferPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.Orders.TransferToAccount(r.Context(), t.ID, actor, number, payload.AccountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *Handler) TableReopen(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	number, err := readTable(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	since := tenant.StartOfDay(h.now(), t.Settings.Location())
	reopened, err := h.Orders.ReopenTable(r.Context(), t.ID, actor, number, since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, reopened)
}
