package printing

import (
	"context"
	"time"

	"tableside-order-services/internal/receipt"
)

type Kind string

const (
	KindOrder    Kind = "order"
	KindAddendum Kind = "addendum"
	KindManual   Kind = "manual"
)

// Job is the queued unit of print work. The receipt is pre-built so the
// consumer never reads order state that may have moved on.
type Job struct {
	Kind      Kind            `json:"kind"`
	TenantID  string          `json:"tenantId"`
	OrderID   string          `json:"orderId"`
	Receipt   receipt.Receipt `json:"receipt"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Sink accepts jobs for asynchronous processing.
type Sink interface {
	Submit(ctx context.Context, job Job) error
}
