package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

// RecoveryMiddleware turns a panic into a 500. The panic value is logged but
// never written to the client, since it may carry session data.
func RecoveryMiddleware(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				lg, ok := logger.Lookup(r.Context())
				if !ok {
					lg = fallback
				}
				lg.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"code":500,"message":"Internal server error"}`))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
