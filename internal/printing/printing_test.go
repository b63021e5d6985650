package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/storage"
	"tableside-order-services/internal/tenant"

	"github.com/shopspring/decimal"
)

type captureSink struct {
	mu   sync.Mutex
	jobs []Job
	err  error
}

func (s *captureSink) Submit(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return s.err
}

func order() orders.Order {
	o := orders.Order{ID: "abc123ff-0000", TableNumber: 4, DisplayName: "Can", Disposition: orders.Preparing, CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	o.SetItems([]orders.Item{{LineID: "l1", Name: "Tea", Price: decimal.RequireFromString("15"), Quantity: 5}})
	return o
}

func TestAutomaticPrintRouting(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want int
	}{
		{name: "print server printing inline", opts: Options{PrintServer: true, AutoPrint: true}, want: 2},
		{name: "other instance without a queue", opts: Options{PrintServer: false, AutoPrint: true}},
		{name: "other instance publishes to the shared queue", opts: Options{PrintServer: false, AutoPrint: true, Shared: true}, want: 2},
		{name: "auto print off", opts: Options{PrintServer: true, AutoPrint: false, Shared: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &captureSink{}
			d := NewDispatcher(sink, tc.opts, nil)
			o := order()
			d.OrderPlaced("t1", o)
			d.Addendum("t1", o, []orders.Item{{LineID: "l1", Name: "Tea", Price: decimal.RequireFromString("15"), Quantity: 3}})
			d.Close()
			if len(sink.jobs) != tc.want {
				t.Fatalf("expected %d jobs, got %d", tc.want, len(sink.jobs))
			}
		})
	}
}

func TestCloseWhileDispatching(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Options{AutoPrint: true, Shared: true}, nil)
	o := order()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				d.OrderPlaced("t1", o)
			}
		}()
	}
	d.Close()
	wg.Wait()
	d.Close()

	sink.mu.Lock()
	before := len(sink.jobs)
	sink.mu.Unlock()
	d.OrderPlaced("t1", o)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.jobs) != before {
		t.Fatalf("no job may start after Close, had %d now %d", before, len(sink.jobs))
	}
}

func TestAddendumJobCarriesDelta(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Options{PrintServer: true, AutoPrint: true}, nil)
	d.Addendum("t1", order(), []orders.Item{{LineID: "l1", Name: "Tea", Price: decimal.RequireFromString("15"), Quantity: 3}})
	d.Close()

	if len(sink.jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(sink.jobs))
	}
	job := sink.jobs[0]
	if job.Kind != KindAddendum || !job.Receipt.Addendum {
		t.Fatalf("expected addendum job, got %+v", job)
	}
	if len(job.Receipt.Lines) != 1 || job.Receipt.Lines[0].Quantity != 3 {
		t.Fatalf("expected only the +3 delta, got %+v", job.Receipt.Lines)
	}
}

func TestDispatchFailureDoesNotPropagate(t *testing.T) {
	sink := &captureSink{err: errors.New("printer offline")}
	d := NewDispatcher(sink, Options{PrintServer: true, AutoPrint: true}, nil)
	d.OrderPlaced("t1", order())
	d.Close()
	if len(sink.jobs) != 1 {
		t.Fatalf("expected the attempt to be made")
	}
}

func TestManualIgnoresDesignation(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Options{}, nil)
	if err := d.Manual(context.Background(), "t1", order()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.jobs) != 1 || sink.jobs[0].Kind != KindManual {
		t.Fatalf("expected one manual job, got %+v", sink.jobs)
	}

	if err := NewDispatcher(nil, Options{}, nil).Manual(context.Background(), "t1", order()); err == nil {
		t.Fatalf("expected error without a sink")
	}
}

type tenantStore struct{}

func (tenantStore) FindBySlug(context.Context, string) (*tenant.Tenant, error) { return nil, nil }

func (tenantStore) FindByID(_ context.Context, id string) (*tenant.Tenant, error) {
	s := tenant.DefaultSettings()
	s.PaperWidth = 58
	s.Timezone = "UTC"
	return &tenant.Tenant{ID: id, Settings: s}, nil
}

func (tenantStore) UpdateSettings(context.Context, string, tenant.Settings) error { return nil }

type memArchive struct{ keys []string }

func (a *memArchive) ArchiveReceipt(_ context.Context, tenantID, shortID string, day time.Time, pdf []byte) (string, error) {
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return "", errors.New("not a pdf")
	}
	key := storage.ReceiptKey(tenantID, day, shortID)
	a.keys = append(a.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type memDevice struct{ data [][]byte }

func (d *memDevice) Print(_ context.Context, data []byte) error {
	d.data = append(d.data, data)
	return nil
}

func TestProcessorHandlesQueuedJob(t *testing.T) {
	archive := &memArchive{}
	device := &memDevice{}
	p := &Processor{Tenants: tenantStore{}, Archive: archive, Device: device}

	sink := &captureSink{}
	if err := NewDispatcher(sink, Options{}, nil).Manual(context.Background(), "t1", order()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, err := json.Marshal(sink.jobs[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := p.Handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(device.data) != 1 || !bytes.Contains(device.data[0], []byte("Tea x5")) {
		t.Fatalf("expected ticket on the device")
	}
	if len(archive.keys) != 1 || archive.keys[0][:len("receipts/t1/")] != "receipts/t1/" {
		t.Fatalf("unexpected archive keys %v", archive.keys)
	}

	if err := p.Handle(context.Background(), []byte("{broken")); err != nil {
		t.Fatalf("malformed jobs are dropped, got %v", err)
	}
}
