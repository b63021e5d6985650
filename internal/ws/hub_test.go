package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tableside-order-services/internal/orders"
	"tableside-order-services/internal/tenant"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type fakeSnapshots struct {
	mu     sync.Mutex
	tables map[string][]orders.Table
	fail   bool
}

func (f *fakeSnapshots) OpenTables(_ context.Context, tenantID string) ([]orders.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("db down")
	}
	return f.tables[tenantID], nil
}

func (f *fakeSnapshots) set(tenantID string, tables []orders.Table) {
	f.mu.Lock()
	f.tables[tenantID] = tables
	f.mu.Unlock()
}

func startServer(t *testing.T, hub *Hub, tenantID string) *websocket.Conn {
	t.Helper()
	srv := NewServer(hub, nil, time.Second, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tenant.WithTenant(r.Context(), &tenant.Tenant{ID: tenantID, IsActive: true})
		srv.TablesWS(w, r.WithContext(ctx))
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitForSubscribers(t *testing.T, hub *Hub, tenantID string, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for len(hub.subscribers(tenantID)) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubPushesSnapshotOnConnectAndNotify(t *testing.T) {
	snaps := &fakeSnapshots{tables: map[string][]orders.Table{
		"t1": {{Number: 3, Total: decimal.RequireFromString("70"), Badge: orders.Waiting}},
	}}
	hub := NewHub(snaps, nil)
	conn := startServer(t, hub, "t1")

	first := read(t, conn)
	if first.Type != TypeTablesState || len(first.Data) != 1 || first.Data[0].Number != 3 {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}
	waitForSubscribers(t, hub, "t1", 1)

	snaps.set("t1", []orders.Table{{Number: 3}, {Number: 8}})
	hub.Notify(context.Background(), "t1")
	next := read(t, conn)
	if len(next.Data) != 2 {
		t.Fatalf("expected refreshed snapshot, got %+v", next)
	}

	// Other tenants' changes are not delivered.
	hub.Notify(context.Background(), "t2")
	snaps.mu.Lock()
	snaps.fail = true
	snaps.mu.Unlock()
	hub.Notify(context.Background(), "t1")
	if msg := read(t, conn); msg.Type != TypeTablesRefresh {
		t.Fatalf("expected refresh hint after snapshot failure, got %+v", msg)
	}
}

func TestUnsubscribeOnClose(t *testing.T) {
	hub := NewHub(&fakeSnapshots{tables: map[string][]orders.Table{}}, nil)
	conn := startServer(t, hub, "t1")
	read(t, conn)
	waitForSubscribers(t, hub, "t1", 1)

	conn.Close()
	waitForSubscribers(t, hub, "t1", 0)
}
