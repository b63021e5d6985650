package ws

import (
	"context"
	"strings"
	"sync"
	"time"

	"tableside-order-services/internal/orders"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Snapshotter produces the open-tables view pushed to subscribers.
type Snapshotter interface {
	OpenTables(ctx context.Context, tenantID string) ([]orders.Table, error)
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(value)
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

type Message struct {
	Type      string         `json:"type"`
	Data      []orders.Table `json:"data,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

const (
	TypeTablesState   = "tables.state"
	TypeTablesRefresh = "tables.refresh"
)

// Hub fans tenant change notifications out to that tenant's staff screens.
// Every notification re-reads the full open-tables view; nothing is patched
// incrementally.
type Hub struct {
	snapshots Snapshotter
	logger    *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

func NewHub(snapshots Snapshotter, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{snapshots: snapshots, logger: logger, subs: make(map[string]map[*client]struct{})}
}

func (h *Hub) subscribe(tenantID string, c *client) (unsubscribe func()) {
	h.mu.Lock()
	if h.subs[tenantID] == nil {
		h.subs[tenantID] = make(map[*client]struct{})
	}
	h.subs[tenantID][c] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		h.drop(tenantID, c)
		h.mu.Unlock()
	}
}

// drop must be called with mu held.
func (h *Hub) drop(tenantID string, c *client) {
	clients := h.subs[tenantID]
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.subs, tenantID)
	}
}

func (h *Hub) subscribers(tenantID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.subs[tenantID]))
	for c := range h.subs[tenantID] {
		out = append(out, c)
	}
	return out
}

func (h *Hub) broadcast(tenantID string, message any) {
	for _, c := range h.subscribers(tenantID) {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			h.mu.Lock()
			h.drop(tenantID, c)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) snapshot(ctx context.Context, tenantID string) Message {
	tables, err := h.snapshots.OpenTables(ctx, tenantID)
	if err != nil {
		h.logger.Warn("tables snapshot failed", zap.String("tenantId", tenantID), zap.Error(err))
		return Message{Type: TypeTablesRefresh, UpdatedAt: time.Now()}
	}
	return Message{Type: TypeTablesState, Data: tables, UpdatedAt: time.Now()}
}

// Notify pushes a fresh snapshot to every subscriber of tenantID. When the
// snapshot cannot be built, clients get a refresh hint and re-fetch over HTTP.
func (h *Hub) Notify(ctx context.Context, tenantID string) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" || len(h.subscribers(tenantID)) == 0 {
		return
	}
	h.broadcast(tenantID, h.snapshot(ctx, tenantID))
}
