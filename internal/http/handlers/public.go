package handlers

import (
	"net/http"
	"strings"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/cart"
	"tableside-order-services/internal/catalog"
	"tableside-order-services/internal/loyalty"
	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/tenant"
	"tableside-order-services/pkg/response"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const customerSessionHeader = "X-Customer-Session"

type publicMenuResponse struct {
	Tenant   publicTenant `json:"tenant"`
	Menu     catalog.Menu `json:"menu"`
	Currency string       `json:"currency"`
}

type publicTenant struct {
	Slug                 string          `json:"slug"`
	Name                 string          `json:"name"`
	ServiceChargePercent decimal.Decimal `json:"serviceChargePercent"`
	MinRedeemPoints      int             `json:"minRedeemPoints"`
}

func (h *Handler) PublicMenu(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	menu, err := h.Catalog.Menu(r.Context(), t.ID, true)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, publicMenuResponse{
		Tenant: publicTenant{
			Slug:                 t.Slug,
			Name:                 t.Name,
			ServiceChargePercent: t.Settings.ServiceChargePercent,
			MinRedeemPoints:      t.Settings.MinRedeemPoints,
		},
		Menu:     menu,
		Currency: t.Settings.Currency,
	})
}

type customerCheckoutPayload struct {
	Table        int                `json:"table"`
	CustomerName string             `json:"customerName"`
	Note         string             `json:"note"`
	MemberPhone  string             `json:"memberPhone"`
	RedeemPoints bool               `json:"redeemPoints"`
	Items        []cart.LineRequest `json:"items"`
}

// publicMember is all an anonymous caller learns about a member.
type publicMember struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	AvailablePoints int    `json:"availablePoints"`
}

func toPublicMember(m *loyalty.Member) *publicMember {
	if m == nil {
		return nil
	}
	return &publicMember{ID: m.ID, Name: m.Name, AvailablePoints: m.AvailablePoints()}
}

type quoteResponse struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	ServiceCharge   decimal.Decimal `json:"serviceCharge"`
	Loyalty         loyalty.Quote   `json:"loyalty"`
	Member          *publicMember   `json:"member,omitempty"`
	AvailablePoints int             `json:"availablePoints"`
}

func loyaltyRates(s tenant.Settings) loyalty.Rates {
	return loyalty.Rates{PointsPerUnit: s.PointsPerUnit, PointValue: s.PointValue, MinRedeemPoints: s.MinRedeemPoints}
}

// customerCheckout rebuilds the cart from catalog prices and resolves the
// optional member. A phone that matches no member is an error so the
// customer can correct it or register first.
func (h *Handler) customerCheckout(r *http.Request, t *tenant.Tenant, payload customerCheckoutPayload) (*cart.CustomerCart, orders.CustomerOrder, error) {
	in := orders.CustomerOrder{
		Table:                payload.Table,
		CustomerName:         payload.CustomerName,
		Note:                 payload.Note,
		Redeem:               payload.RedeemPoints,
		ServiceChargePercent: t.Settings.ServiceChargePercent,
		Rates:                loyaltyRates(t.Settings),
	}
	if len(payload.Items) == 0 {
		return nil, in, apperr.Validation("EMPTY_CART", "Add at least one item")
	}
	products, err := h.Catalog.Products(r.Context(), t.ID, cart.ProductIDs(payload.Items))
	if err != nil {
		return nil, in, err
	}
	basket, err := cart.BuildCustomerCart(products, payload.Items)
	if err != nil {
		return nil, in, err
	}
	if strings.TrimSpace(payload.MemberPhone) != "" {
		member, err := h.Loyalty.Lookup(r.Context(), t.ID, payload.MemberPhone)
		if err != nil {
			return nil, in, err
		}
		in.Member = member
	}
	return basket, in, nil
}

func (h *Handler) PublicLoyaltyQuote(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload customerCheckoutPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	basket, in, err := h.customerCheckout(r, t, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	subtotal := orders.SumItems(orders.ItemsFromLines(basket.Lines()))
	charge, quote := orders.PriceCheckout(subtotal, in)
	out := quoteResponse{Subtotal: subtotal, ServiceCharge: charge, Loyalty: quote, Member: toPublicMember(in.Member)}
	if in.Member != nil {
		out.AvailablePoints = in.Member.AvailablePoints()
	}
	response.Success(w, out)
}

func (h *Handler) PublicOrderCreate(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload customerCheckoutPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	basket, in, err := h.customerCheckout(r, t, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	session := strings.TrimSpace(r.Header.Get(customerSessionHeader))
	if session == "" {
		session = uuid.NewString()
	}
	checkout, err := h.Orders.PlaceCustomerOrder(r.Context(), t.ID, orders.Actor{UserID: session}, in, basket)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set(customerSessionHeader, session)
	response.Created(w, checkout)
}

func (h *Handler) PublicMemberLookup(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.Loyalty.Lookup(r.Context(), t.ID, readPathString(r, "phone"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, toPublicMember(m))
}

type registerMemberPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *Handler) PublicMemberRegister(w http.ResponseWriter, r *http.Request) {
	t, err := currentTenant(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload registerMemberPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.Loyalty.Register(r.Context(), t.ID, payload.Name, payload.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, m)
}
