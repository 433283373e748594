package viewgate

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	errors "github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
	"github.com/sekreterlik/sekreterlik/internal/session"
	"github.com/sekreterlik/sekreterlik/internal/transport"
)

// GrantsProvider resolves the permissions of a position. It must not fail:
// an unreadable registry yields an empty set.
type GrantsProvider interface {
	GrantsFor(ctx context.Context, position string) rbac.Grants
}

type Config struct {
	Unlisted UnlistedPolicy
	ErrorTTL time.Duration
	Now      func() time.Time
}

type Handler struct {
	*transport.BaseHandler
	grants GrantsProvider
	store  session.Store
	cfg    Config
}

func NewHandler(baseHandler *transport.BaseHandler, grants GrantsProvider, store session.Store, cfg Config) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Handler{
		BaseHandler: baseHandler,
		grants:      grants,
		store:       store,
		cfg:         cfg,
	}
}

// Show handles GET /member-dashboard.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	g, sessionID, ok := h.open(w, r)
	if !ok {
		return
	}
	before := g.State()
	g.Render()
	if g.State() != before {
		h.save(r.Context(), sessionID, g)
	}
	h.respond(w, g)
}

// SwitchView handles POST /member-dashboard/view. A denied switch is not an
// HTTP error: the response carries the dashboard view and the message.
func (h *Handler) SwitchView(w http.ResponseWriter, r *http.Request) {
	var dto SwitchViewDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "SwitchView: invalid request body")
		return
	}
	view := rbac.ParseView(dto.View)
	if view == "" {
		h.HandleServiceError(w, r, errors.NewValidationFieldError("view", "view is required", errors.ErrCodeUnknownView), "SwitchView: empty view")
		return
	}

	g, sessionID, ok := h.open(w, r)
	if !ok {
		return
	}
	g.SetViewWithPermission(view)
	h.save(r.Context(), sessionID, g)
	h.respond(w, g)
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) (*Gate, string, bool) {
	p, ok := auth.ProviderFromContext(r.Context())
	if !ok || !p.State().IsLoggedIn {
		h.HandleServiceError(w, r, errors.ErrNotAuthenticated, "member dashboard without session")
		return nil, "", false
	}
	st := p.State()

	var grants rbac.Grants
	if st.Role() == rbac.RoleAdmin {
		grants = rbac.AllGrants()
	} else {
		grants = h.grants.GrantsFor(r.Context(), st.Position())
	}

	g := New(grants,
		WithUnlistedPolicy(h.cfg.Unlisted),
		WithErrorTTL(h.cfg.ErrorTTL),
		WithClock(h.cfg.Now),
		WithLogger(h.Log(r)),
	)

	id := p.SessionID()
	raw, err := h.store.LoadView(r.Context(), id)
	if err != nil {
		h.Log(r).Error("load dashboard view", "error", err)
	} else if raw != "" {
		var saved State
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			h.Log(r).Warn("discarding unreadable dashboard view", "error", err)
		} else {
			g.Restore(saved)
		}
	}
	return g, id, true
}

func (h *Handler) save(ctx context.Context, sessionID string, g *Gate) {
	if sessionID == "" {
		return
	}
	raw, err := json.Marshal(g.State())
	if err != nil {
		h.Logger.Error("encode dashboard view", "error", err)
		return
	}
	if err := h.store.SaveView(ctx, sessionID, string(raw)); err != nil {
		h.Logger.Error("save dashboard view", "error", err)
	}
}

func (h *Handler) respond(w http.ResponseWriter, g *Gate) {
	st := g.State()
	h.WriteJSON(w, http.StatusOK, DashboardResponse{
		CurrentView: st.CurrentView,
		Error:       st.Error,
		Views:       g.Views(),
		Permissions: g.grants.Keys(),
	})
}
