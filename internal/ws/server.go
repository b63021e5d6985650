package ws

import (
	"net/http"
	"time"

	"tableside-order-services/internal/tenant"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Server struct {
	Hub       *Hub
	Logger    *zap.Logger
	Heartbeat time.Duration
	upgrader  websocket.Upgrader
}

// NewServer builds the websocket endpoint. allowedOrigins empty accepts any
// origin; the route sits behind staff token auth either way.
func NewServer(hub *Hub, logger *zap.Logger, heartbeat time.Duration, allowedOrigins []string) *Server {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Server{
		Hub:       hub,
		Logger:    logger,
		Heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// TablesWS streams the tenant's open tables. Tenant and staff token are
// checked by middleware before the upgrade.
func (s *Server) TablesWS(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant.FromContext(r.Context())
	if !ok {
		http.Error(w, "tenant required", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()
	c := &client{conn: conn}
	unsubscribe := s.Hub.subscribe(t.ID, c)
	defer unsubscribe()

	if err := c.writeJSON(s.Hub.snapshot(ctx, t.ID)); err != nil {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * s.Heartbeat))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * s.Heartbeat))
	})

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
