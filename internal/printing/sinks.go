package printing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"tableside-order-services/internal/apperr"
	"tableside-order-services/internal/queue"
	"tableside-order-services/internal/receipt"
	"tableside-order-services/internal/tenant"

	"go.uber.org/zap"
)

var errNoSink = apperr.Remote("Printing is not configured", errors.New("no print sink"))

// QueueSink publishes jobs to the print-jobs exchange for a worker to pick
// up.
type QueueSink struct {
	Client *queue.Client
}

func (s QueueSink) Submit(ctx context.Context, job Job) error {
	return s.Client.PublishJSON(ctx, queue.PrintJobsExchange, queue.PrintJobsRK, job)
}

// Archiver keeps a PDF copy of every printed receipt.
type Archiver interface {
	ArchiveReceipt(ctx context.Context, tenantID, shortID string, day time.Time, pdf []byte) (string, error)
}

type Device interface {
	Print(ctx context.Context, data []byte) error
}

// NetworkPrinter writes raw ESC/POS bytes to a thermal printer's TCP port
// (usually 9100).
type NetworkPrinter struct {
	Addr    string
	Timeout time.Duration
}

func (p NetworkPrinter) Print(ctx context.Context, data []byte) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return fmt.Errorf("dial printer %s: %w", p.Addr, err)
	}
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write printer %s: %w", p.Addr, err)
	}
	return nil
}

// Processor renders jobs and delivers them: ESC/POS to the device, PDF to
// the archive. Either may be nil.
type Processor struct {
	Tenants tenant.Store
	Archive Archiver
	Device  Device
	Logger  *zap.Logger
}

func (p *Processor) Submit(ctx context.Context, job Job) error {
	t, err := p.Tenants.FindByID(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant %s: %w", job.TenantID, err)
	}
	layout := receipt.LayoutFor(t.Settings)

	if p.Device != nil {
		if err := p.Device.Print(ctx, receipt.ESCPOS(job.Receipt, layout)); err != nil {
			return err
		}
	}
	if p.Archive != nil && job.Kind != KindAddendum {
		doc, err := receipt.PDF(job.Receipt, layout)
		if err != nil {
			return fmt.Errorf("render receipt pdf: %w", err)
		}
		day := job.CreatedAt.In(layout.Location)
		if _, err := p.Archive.ArchiveReceipt(ctx, job.TenantID, job.Receipt.ShortID, day, doc); err != nil {
			// The ticket is already printed; retrying would print it twice.
			if p.Logger != nil {
				p.Logger.Warn("receipt archive failed", zap.String("orderId", job.OrderID), zap.Error(err))
			}
		}
	}
	if p.Logger != nil {
		p.Logger.Info("receipt printed",
			zap.String("tenantId", job.TenantID),
			zap.String("orderId", job.OrderID),
			zap.String("kind", string(job.Kind)),
		)
	}
	return nil
}

// Handle is the queue consumer entry point.
func (p *Processor) Handle(ctx context.Context, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		if p.Logger != nil {
			p.Logger.Error("dropping malformed print job", zap.Error(err))
		}
		return nil
	}
	return p.Submit(ctx, job)
}
