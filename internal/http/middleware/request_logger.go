package middleware

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

const requestIDKey contextKey = "requestID"

// RequestObserver receives per-request latency.
type RequestObserver interface {
	ObserveRequest(method, status string, seconds float64)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack passes through so websocket upgrades work behind the logger.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("middleware: %T does not support hijacking", r.ResponseWriter)
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// RequestLogger emits structured logs for every HTTP request and tags it with
// a request id. observer may be nil.
func RequestLogger(logger *logging.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := context.WithValue(r.Context(), requestIDKey, reqID)
			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"request_id", reqID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if pid := r.URL.Query().Get("pid"); pid != "" {
				attrs = append(attrs, "session_id", pid)
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Warn("request failed", attrs...)
			} else {
				logger.Info("request completed", attrs...)
			}
			if observer != nil {
				observer.ObserveRequest(r.Method, strconv.Itoa(rec.status), time.Since(start).Seconds())
			}
		})
	}
}

// RequestIDFromContext returns the id RequestLogger attached to ctx.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
