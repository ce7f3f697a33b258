package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Timeout bounds each request with a deadline. When the deadline passes
// before the handler writes anything, the client receives a 504; a handler
// that already started writing keeps the connection.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			rw := &deadlineWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(rw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if rw.started.Load() {
					return
				}
				slog.Warn("request deadline exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"limit", limit,
				)
				http.Error(w, `{"error":"request timeout"}`, http.StatusGatewayTimeout)
			}
		})
	}
}

// deadlineWriter records whether the wrapped handler produced any output,
// so a timed-out request is only answered once.
type deadlineWriter struct {
	http.ResponseWriter
	started atomic.Bool
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.started.Store(true)
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.started.Store(true)
	return dw.ResponseWriter.Write(b)
}
