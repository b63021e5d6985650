package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/receipt"
	"tableside-order-services/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) OrderGet(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.Get(r.Context(), t.ID, readPathString(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, o)
}

type orderStatusPayload struct {
	Status  string `json:"status"`
	Version int    `json:"version"`
}

func (h *Handler) OrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload orderStatusPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := orders.ParseOpenDisposition(strings.TrimSpace(payload.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.UpdateStatus(r.Context(), t.ID, actor, readPathString(r, "id"), to, payload.Version)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, o)
}

type paymentTypePayload struct {
	PaymentType string `json:"paymentType"`
	Version     int    `json:"version"`
}

func (h *Handler) OrderChangePaymentType(w http.ResponseWriter, r *http.Request) {
	t, actor, err := staffRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload paymentTypePayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.ChangePaymentType(r.Context(), t.ID, actor, readPathString(r, "id"), payload.PaymentType, payload.Version)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, o)
}

// OrderReceipt renders an order's receipt as text (default), html or pdf using
// the tenant's paper width.
func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.Get(r.Context(), t.ID, readPathString(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	layout := receipt.LayoutFor(t.Settings)
	rec := receipt.FromOrder(*o)

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "", "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(receipt.Text(rec, layout)))
	case "html":
		body, err := receipt.HTML(rec, layout)
		if err != nil {
			h.writeError(w, r, apperr.Remote("Failed to render receipt", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	case "pdf":
		body, err := receipt.PDF(rec, layout)
		if err != nil {
			h.writeError(w, r, apperr.Remote("Failed to render receipt", err))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"receipt-%s.pdf\"", o.ShortID()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	default:
		h.writeError(w, r, apperr.Validation("INVALID_FORMAT", "Format must be text, html or pdf"))
	}
}

// OrderPrint sends the receipt to the print server regardless of the
// automatic printing switch and reports failures to the caller.
func (h *Handler) OrderPrint(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.Orders.Get(r.Context(), t.ID, readPathString(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.Printer == nil {
		h.writeError(w, r, apperr.Remote("No printer is configured", nil))
		return
	}
	if err := h.Printer.Manual(r.Context(), t.ID, *o); err != nil {
		h.logger().Warn("manual print failed", zap.String("tenantId", t.ID), zap.String("orderId", o.ID), zap.Error(err))
		h.writeError(w, r, apperr.Remote("Failed to print receipt", err))
		return
	}
	response.Success(w, map[string]any{"printed": true, "orderId": o.ID})
}
