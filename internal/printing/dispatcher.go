package printing

import (
	"context"
	"sync"
	"time"

	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/receipt"

	"go.uber.org/zap"
)

type Options struct {
	// PrintServer marks this process as the one that prints automatically.
	PrintServer bool
	AutoPrint   bool
	// Shared means the sink is the queue the print server consumes, so every
	// instance publishes its automatic jobs there.
	Shared  bool
	Timeout time.Duration
}

// Dispatcher turns order events into print jobs. Automatic triggers are
// fire-and-forget and end up on the designated print server: published to
// the shared queue from any instance, or printed inline by the print server
// itself. Manual always submits.
type Dispatcher struct {
	sink   Sink
	opts   Options
	logger *zap.Logger
	now    func() time.Time
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(sink Sink, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sink: sink, opts: opts, logger: logger, now: time.Now}
}

func (d *Dispatcher) Automatic() bool {
	return d.opts.AutoPrint && d.sink != nil && (d.opts.Shared || d.opts.PrintServer)
}

func (d *Dispatcher) OrderPlaced(tenantID string, o orders.Order) {
	if !d.Automatic() {
		return
	}
	d.dispatch(Job{Kind: KindOrder, TenantID: tenantID, OrderID: o.ID, Receipt: receipt.FromOrder(o), CreatedAt: d.now()})
}

func (d *Dispatcher) Addendum(tenantID string, o orders.Order, delta []orders.Item) {
	if !d.Automatic() || len(delta) == 0 {
		return
	}
	at := d.now()
	d.dispatch(Job{Kind: KindAddendum, TenantID: tenantID, OrderID: o.ID, Receipt: receipt.Addendum(o, delta, at), CreatedAt: at})
}

// Manual submits synchronously so the caller can report a failure to the
// staff member who asked for the print.
func (d *Dispatcher) Manual(ctx context.Context, tenantID string, o orders.Order) error {
	job := Job{Kind: KindManual, TenantID: tenantID, OrderID: o.ID, Receipt: receipt.FromOrder(o), CreatedAt: d.now()}
	if d.sink == nil {
		return errNoSink
	}
	return d.sink.Submit(ctx, job)
}

func (d *Dispatcher) dispatch(job Job) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("print dispatch panicked", zap.Any("panic", r), zap.String("orderId", job.OrderID))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
		defer cancel()
		if err := d.sink.Submit(ctx, job); err != nil {
			d.logger.Warn("print dispatch failed",
				zap.String("tenantId", job.TenantID),
				zap.String("orderId", job.OrderID),
				zap.String("kind", string(job.Kind)),
				zap.Error(err),
			)
		}
	}()
}

// Close stops accepting automatic jobs and waits for in-flight ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
