package ws

import (
	"context"
	"time"

	"tableside-order-services/internal/orders"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Listen forwards orders_updates notifications (payload: tenant id) to the
// hub until ctx is done, reconnecting with backoff.
func Listen(ctx context.Context, pool *pgxpool.Pool, hub *Hub, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backoff := time.Second
	wait := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = minDuration(backoff*2, 30*time.Second)
		return true
	}

	for {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("orders LISTEN acquire failed", zap.Error(err))
			if !wait() {
				return
			}
			continue
		}

		if _, err := conn.Exec(ctx, `listen `+orders.ChangeChannel); err != nil {
			conn.Release()
			logger.Warn("orders LISTEN failed", zap.Error(err))
			if !wait() {
				return
			}
			continue
		}

		backoff = time.Second
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				break
			}
			hub.Notify(ctx, n.Payload)
		}

		// The connection still has LISTEN registered; close it rather than
		// returning it to the pool.
		_ = conn.Conn().Close(context.Background())
		conn.Release()
		if ctx.Err() != nil {
			return
		}
		if !wait() {
			return
		}
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
