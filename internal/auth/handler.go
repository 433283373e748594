package auth

import (
	"context"
	"net/http"

	"github.com/sekreterlik/sekreterlik/internal/rbac"
	"github.com/sekreterlik/sekreterlik/internal/session"
	"github.com/sekreterlik/sekreterlik/internal/transport"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

type ctxKey struct{}

// WithProvider stores the request's Provider in ctx.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func ProviderFromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Provider)
	return p, ok && p != nil
}

// StateFromContext returns the resolved session of the request. Without a
// mounted Provider the request is anonymous.
func StateFromContext(ctx context.Context) State {
	if p, ok := ProviderFromContext(ctx); ok {
		return p.State()
	}
	return State{}
}

// SourceFactory builds the remote principal source for one request.
type SourceFactory func(r *http.Request) PrincipalSource

type Handler struct {
	*transport.BaseHandler
	cfg     ProviderConfig
	cookies *session.CookieManager
	sources SourceFactory
}

func NewHandler(base *transport.BaseHandler, cfg ProviderConfig, cookies *session.CookieManager, sources SourceFactory) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = base.Logger
	}
	return &Handler{
		BaseHandler: base,
		cfg:         cfg,
		cookies:     cookies,
		sources:     sources,
	}
}

// Session mounts a Provider for every request and exposes it through the context.
func (h *Handler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.cookies.Read(r)
		if err != nil {
			id = ""
		}

		var source PrincipalSource
		if h.cfg.Mode == ModeRemote && h.sources != nil {
			source = h.sources(r)
		}

		cfg := h.cfg
		cfg.Logger = logger.From(r.Context())
		p := NewProvider(cfg, id, source)
		defer p.Close()

		st := p.Mount(r.Context())

		ctx := WithProvider(r.Context(), p)
		if st.User != nil {
			ctx = logger.With(ctx, "user_id", string(st.User.ID), "role", string(st.User.Role))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Login handles POST /auth/login. Rejections are reported with HTTP 200 and success false.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	p, ok := ProviderFromContext(r.Context())
	if !ok {
		h.WriteError(w, r, http.StatusInternalServerError, "session not mounted")
		return
	}

	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "Login: invalid request body")
		return
	}

	if !p.Login(r.Context(), dto.Username, dto.Password) {
		h.WriteJSON(w, http.StatusOK, LoginResponse{Success: false, Message: p.State().Error})
		return
	}

	if err := h.cookies.Issue(w, p.SessionID()); err != nil {
		h.Log(r).Error("Login: failed to issue session cookie", "error", err)
		p.Logout(r.Context())
		h.WriteError(w, r, http.StatusInternalServerError, "failed to start session")
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{Success: true, User: p.State().User})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if p, ok := ProviderFromContext(r.Context()); ok {
		p.Logout(r.Context())
	}
	h.cookies.Clear(w)
	h.WriteJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

// GetSession handles GET /auth/session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st := StateFromContext(r.Context())
	home := rbac.PathLogin
	if st.IsLoggedIn {
		home = rbac.HomePath(st.Role())
	}
	h.WriteJSON(w, http.StatusOK, SessionResponse{
		User:       st.User,
		IsLoggedIn: st.IsLoggedIn,
		Loading:    st.Loading,
		Error:      st.Error,
		HomePath:   home,
	})
}

// LoginForm handles GET /auth/login. Behind the public guard it is only
// reached by visitors without a session.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, SessionResponse{HomePath: rbac.PathLogin})
}
