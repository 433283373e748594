package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/sekreterlik/sekreterlik/api"
	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/guard"
	"github.com/sekreterlik/sekreterlik/internal/member"
	"github.com/sekreterlik/sekreterlik/internal/permission"
	"github.com/sekreterlik/sekreterlik/internal/position"
	"github.com/sekreterlik/sekreterlik/internal/transport/middleware"
	"github.com/sekreterlik/sekreterlik/internal/transport/swagger"
	"github.com/sekreterlik/sekreterlik/internal/viewgate"
)

type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	Permission *permission.Handler
	Position   *position.Handler
	Member     *member.Handler
	Dashboard  *viewgate.Handler
}

type RouterOptions struct {
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		// Every route below resolves the session first.
		r.Group(func(sr chi.Router) {
			sr.Use(h.Auth.Session)

			sr.Route("/auth", func(ar chi.Router) {
				ar.With(middleware.Guard(guard.PublicRoute)).Get("/login", h.Auth.LoginForm)
				ar.Post("/login", h.Auth.Login)
				ar.Post("/logout", h.Auth.Logout)
				ar.Get("/session", h.Auth.GetSession)
			})

			if h.Member != nil {
				sr.Get("/members/me", h.Member.GetCurrentMember)
			}

			// Authorization settings
			sr.Group(func(ar chi.Router) {
				ar.Use(middleware.Guard(guard.AdminRoute))

				if h.Member != nil {
					ar.Get("/admin", h.Member.GetCurrentMember)
				}
				if h.Permission != nil {
					ar.Get("/permissions", h.Permission.GetAll)
					ar.Get("/permission-catalog", h.Permission.GetAvailable)
					ar.Get("/permissions/{position}", h.Permission.GetForPosition)
					ar.Post("/permissions/{position}", h.Permission.SetForPosition)
				}
				if h.Position != nil {
					ar.Get("/positions", h.Position.GetPositions)
					ar.Post("/positions", h.Position.CreatePosition)
				}
			})

			sr.Group(func(mr chi.Router) {
				mr.Use(middleware.Guard(guard.MemberRoute))

				if h.Permission != nil {
					mr.Get("/members/me/permissions", h.Permission.GetMine)
				}
				if h.Dashboard != nil {
					mr.Get("/member-dashboard", h.Dashboard.Show)
					mr.Post("/member-dashboard/view", h.Dashboard.SwitchView)
				}
			})

			if h.Member != nil {
				sr.With(middleware.Guard(guard.STKManagerRoute)).Get("/stk-management", h.Member.GetCurrentMember)
				sr.With(middleware.Guard(guard.DistrictPresidentRoute)).Get("/district-president-dashboard", h.Member.GetCurrentMember)
				sr.With(middleware.Guard(guard.TownPresidentRoute)).Get("/town-president-dashboard", h.Member.GetCurrentMember)
			}
		})
	})
}
