package handlers

import (
	"context"
	"time"

	"tableside-order-services/internal/accounts"
	"tableside-order-services/internal/activity"
	"tableside-order-services/internal/catalog"
	"tableside-order-services/internal/config"
	"tableside-order-services/internal/floor"
	"tableside-order-services/internal/loyalty"
	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/reports"
	"tableside-order-services/internal/staff"
	"tableside-order-services/internal/tenant"

	"go.uber.org/zap"
)

// ManualPrinter sends a receipt on request and reports the outcome.
type ManualPrinter interface {
	Manual(ctx context.Context, tenantID string, o orders.Order) error
}

// ImageStore holds uploaded product images.
type ImageStore interface {
	PutProductImage(ctx context.Context, tenantID, productID string, jpeg []byte, at time.Time) (string, error)
	DeleteURL(ctx context.Context, rawURL string) error
}

type Handler struct {
	Logger   *zap.Logger
	Config   config.Config
	Tenants  tenant.Store
	Resolver *tenant.Resolver
	Catalog  *catalog.Service
	Floor    *floor.Service
	Orders   *orders.Service
	Loyalty  *loyalty.Service
	Accounts *accounts.Service
	Activity activity.Store
	Reports  *reports.Service
	Staff    *staff.Service
	Printer  ManualPrinter
	Images   ImageStore
	Now      func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
