package middleware

import (
	"net/http"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/guard"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

// Guard enforces a route guard on the session resolved by auth.Handler.Session.
// A redirect is a 303 to the target; an unresolved session gets a 503 with Retry-After.
func Guard(kind guard.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := auth.StateFromContext(r.Context())
			d := guard.Decide(kind, st)

			switch d.Outcome {
			case guard.Render:
				next.ServeHTTP(w, r)
			case guard.Loading:
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("Yükleniyor..."))
			case guard.Redirect:
				logger.From(r.Context()).Debug("route guard redirect",
					"guard", kind.String(),
					"path", r.URL.Path,
					"target", d.Target,
					"role", string(st.Role()))
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
			}
		})
	}
}
