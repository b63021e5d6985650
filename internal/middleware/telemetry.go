package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"tableside-order-services/internal/tenant"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type telemetryRecorder struct {
	response http.ResponseWriter
	status   int
	bytes    int
}

func (r *telemetryRecorder) Header() http.Header {
	return r.response.Header()
}

func (r *telemetryRecorder) WriteHeader(status int) {
	r.status = status
	r.response.WriteHeader(status)
}

func (r *telemetryRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.response.Write(data)
	r.bytes += n
	return n, err
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *telemetryRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.response.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *telemetryRecorder) Flush() {
	if f, ok := r.response.(http.Flusher); ok {
		f.Flush()
	}
}

// Telemetry writes one structured access log line per request. Tenant and
// staff are read back from the request context once the handler chain has
// populated them.
func Telemetry(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &telemetryRecorder{response: w}
			info := &requestInfo{}
			r = r.WithContext(withRequestInfo(r.Context(), info))

			next.ServeHTTP(recorder, r)

			if logger == nil {
				return
			}
			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			routePattern := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				routePattern = rc.RoutePattern()
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("routePattern", routePattern),
				zap.String("requestId", readRequestID(r)),
				zap.Int("status", status),
				zap.Int("bytes", recorder.bytes),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if info.tenantID != "" {
				fields = append(fields, zap.String("tenantId", info.tenantID))
			}
			if info.staffID != "" {
				fields = append(fields, zap.String("staffId", info.staffID))
			}
			switch {
			case status >= 500:
				logger.Error("http_request", fields...)
			case status >= 400:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}

// requestInfo is filled in by inner middleware so the outer access log can
// see who the request was for.
type requestInfo struct {
	tenantID string
	staffID  string
}

const requestInfoContextKey contextKey = "requestInfo"

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, requestInfoContextKey, info)
}

func noteTenant(ctx context.Context, t *tenant.Tenant) {
	if info, ok := ctx.Value(requestInfoContextKey).(*requestInfo); ok && t != nil {
		info.tenantID = t.ID
	}
}

func noteStaff(ctx context.Context, staffID string) {
	if info, ok := ctx.Value(requestInfoContextKey).(*requestInfo); ok {
		info.staffID = staffID
	}
}
