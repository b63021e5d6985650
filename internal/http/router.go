package httpapi

import (
	"net/http"

	"tableside-order-services/internal/auth"
	"tableside-order-services/internal/http/handlers"
	"tableside-order-services/internal/middleware"
	"tableside-order-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func NewRouter(h *handlers.Handler, staffLookup middleware.StaffLookup, wsServer *ws.Server) http.Handler {
	cfg := h.Config
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(h.Logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Request-Id",
				"X-Customer-Session",
				"Cache-Control",
			},
			ExposedHeaders:   []string{"X-Request-Id", "X-Customer-Session"},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	staffAuth := middleware.StaffAuth(cfg.JWTSecret, staffLookup)
	perm := middleware.RequirePermission

	r.Route("/api", func(r chi.Router) {
		r.Use(setResponseHeader("Cache-Control", "no-store"))
		r.Use(middleware.Tenant(h.Resolver))

		r.Route("/public", func(r chi.Router) {
			r.Get("/menu", h.PublicMenu)
			r.Post("/orders", h.PublicOrderCreate)
			r.Post("/loyalty/quote", h.PublicLoyaltyQuote)
			r.Get("/members/{phone}", h.PublicMemberLookup)
			r.Post("/members", h.PublicMemberRegister)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/pin-login", h.AuthPINLogin)
			r.Post("/login", h.AuthPasswordLogin)
			r.With(staffAuth).Get("/me", h.AuthMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(staffAuth)

			r.Get("/floor", h.FloorLayout)
			r.Get("/catalog", h.CatalogMenu)

			r.Route("/tables", func(r chi.Router) {
				r.With(perm(auth.PermOrders)).Get("/", h.TablesList)
				r.With(perm(auth.PermOrders)).Get("/closed-today", h.TablesClosedToday)
				r.Route("/{number}", func(r chi.Router) {
					r.With(perm(auth.PermOrders)).Get("/", h.TableDetail)
					r.With(perm(auth.PermOrders)).Post("/orders", h.TableSubmitOrder)
					r.With(perm(auth.PermOrders)).Patch("/items/{lineId}", h.TableEditItem)
					r.With(perm(auth.PermCancel)).Post("/items/{lineId}/cancel", h.TableCancelItem)
					r.With(perm(auth.PermCancel)).Post("/cancel-all", h.TableCancelAll)
					r.With(perm(auth.PermCancel)).Post("/cancel-selected", h.TableCancelSelected)
					r.With(perm(auth.PermPayments)).Post("/pay", h.TablePay)
					r.With(perm(auth.PermPayments)).Post("/pay-selected", h.TablePaySelected)
					r.With(perm(auth.PermPayments)).Post("/reopen", h.TableReopen)
					r.With(perm(auth.PermTransfer)).Post("/transfer", h.TableTransfer)
					r.With(perm(auth.PermTransfer)).Post("/transfer-items", h.TableTransferItems)
					r.With(perm(auth.PermAccounts)).Post("/transfer-account", h.TableTransferToAccount)
				})
			})

			r.Route("/orders/{id}", func(r chi.Router) {
				r.Use(perm(auth.PermOrders))
				r.Get("/", h.OrderGet)
				r.Patch("/status", h.OrderUpdateStatus)
				r.Get("/receipt", h.OrderReceipt)
				r.Post("/print", h.OrderPrint)
				r.With(perm(auth.PermPayments)).Patch("/payment-type", h.OrderChangePaymentType)
			})

			r.Group(func(r chi.Router) {
				r.Use(perm(auth.PermMenu))
				r.Post("/catalog/categories", h.CategorySave)
				r.Put("/catalog/categories/{id}", h.CategorySave)
				r.Delete("/catalog/categories/{id}", h.CategoryDelete)
				r.Post("/catalog/products", h.ProductSave)
				r.Put("/catalog/products/{id}", h.ProductSave)
				r.Delete("/catalog/products/{id}", h.ProductDelete)
				r.Post("/catalog/products/{id}/image", h.ProductImageUpload)
				r.Post("/catalog/products/{id}/options", h.OptionSave)
				r.Put("/catalog/options/{optionId}", h.OptionSave)
				r.Delete("/catalog/options/{optionId}", h.OptionDelete)
			})

			r.Group(func(r chi.Router) {
				r.Use(perm(auth.PermTables))
				r.Post("/floor/areas", h.AreaSave)
				r.Put("/floor/areas/{id}", h.AreaSave)
				r.Delete("/floor/areas/{id}", h.AreaDelete)
				r.Post("/floor/tables", h.FloorTableSave)
				r.Put("/floor/tables/{id}", h.FloorTableSave)
				r.Delete("/floor/tables/{id}", h.FloorTableDelete)
			})

			r.Route("/members", func(r chi.Router) {
				r.Use(perm(auth.PermMembers))
				r.Get("/", h.MembersList)
				r.Post("/", h.MemberCreate)
				r.Get("/{id}", h.MemberDetail)
				r.Post("/{id}/adjust", h.MemberAdjustPoints)
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Use(perm(auth.PermAccounts))
				r.Get("/", h.AccountsList)
				r.Post("/", h.AccountCreate)
				r.Get("/{id}", h.AccountDetail)
				r.Put("/{id}", h.AccountUpdate)
				r.Post("/{id}/collect", h.AccountCollect)
			})

			r.With(perm(auth.PermReports)).Get("/activity", h.ActivityList)
			r.With(perm(auth.PermReports)).Get("/reports/summary", h.ReportsSummary)

			r.With(perm(auth.PermSettings)).Get("/settings", h.SettingsGet)
			r.With(perm(auth.PermSettings)).Put("/settings", h.SettingsUpdate)

			// verify_pin is open to every signed-in staff member; the staff
			// service gates the other actions on the admin role.
			r.With(middleware.RequireAdmin()).Get("/staff", h.StaffList)
			r.Post("/staff", h.StaffAction)
		})
	})

	if wsServer != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Tenant(h.Resolver))
			r.Use(staffAuth)
			r.Get("/ws/tables", wsServer.TablesWS)
		})
	}

	return r
}

func setResponseHeader(name string, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(name, value)
			next.ServeHTTP(w, r)
		})
	}
}
