// Package viewgate gates switching between the sub-views of the member
// dashboard. A denied switch lands on the dashboard view and leaves a
// short-lived error message behind.
package viewgate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

// DeniedMessage is shown after a switch to a view the member may not open.
const DeniedMessage = "Bu sayfaya erişim yetkiniz bulunmamaktadır"

const DefaultErrorTTL = 3 * time.Second

// UnlistedPolicy decides views that have no entry in the policy table.
type UnlistedPolicy string

const (
	UnlistedAllow UnlistedPolicy = "allow"
	UnlistedDeny  UnlistedPolicy = "deny"
)

func ParseUnlistedPolicy(s string) (UnlistedPolicy, error) {
	switch p := UnlistedPolicy(s); p {
	case UnlistedAllow, UnlistedDeny:
		return p, nil
	case "":
		return UnlistedAllow, nil
	default:
		return "", fmt.Errorf("unknown unlisted view policy %q", s)
	}
}

// State is what survives between requests.
type State struct {
	CurrentView    rbac.View `json:"currentView"`
	Error          string    `json:"error,omitempty"`
	ErrorExpiresAt time.Time `json:"errorExpiresAt,omitzero"`
}

type Option func(*Gate)

func WithPolicies(p map[rbac.View]rbac.Policy) Option {
	return func(g *Gate) { g.policies = p }
}

func WithUnlistedPolicy(p UnlistedPolicy) Option {
	return func(g *Gate) { g.unlisted = p }
}

func WithErrorTTL(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.errorTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func WithLogger(lg *slog.Logger) Option {
	return func(g *Gate) { g.logger = lg }
}

// Gate holds the current view of one member's dashboard. It is not safe for
// concurrent use; the HTTP handler builds one per request.
type Gate struct {
	policies map[rbac.View]rbac.Policy
	unlisted UnlistedPolicy
	grants   rbac.Grants
	errorTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger

	state State
}

func New(grants rbac.Grants, opts ...Option) *Gate {
	g := &Gate{
		policies: rbac.ViewPolicies,
		unlisted: UnlistedAllow,
		grants:   grants,
		errorTTL: DefaultErrorTTL,
		now:      time.Now,
		logger:   slog.Default(),
		state:    State{CurrentView: rbac.ViewDashboard},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.grants == nil {
		g.grants = rbac.Grants{}
	}
	return g
}

// Restore continues from a previously saved state.
func (g *Gate) Restore(st State) {
	if st.CurrentView == "" {
		st.CurrentView = rbac.ViewDashboard
	}
	g.state = st
}

// State returns the current state with an expired error dropped.
func (g *Gate) State() State {
	st := g.state
	if st.Error != "" && !g.now().Before(st.ErrorExpiresAt) {
		st.Error = ""
		st.ErrorExpiresAt = time.Time{}
	}
	return st
}

func (g *Gate) CurrentView() rbac.View {
	return g.state.CurrentView
}

// Error is the pending denial message, empty once its time has passed.
func (g *Gate) Error() string {
	return g.State().Error
}

func (g *Gate) HasViewPermission(v rbac.View) bool {
	if v == rbac.ViewDashboard {
		return true
	}
	policy, listed := g.policies[v]
	if !listed {
		if g.unlisted == UnlistedDeny {
			g.logger.Warn("view has no access policy, denying", "view", string(v))
			return false
		}
		g.logger.Warn("view has no access policy, allowing", "view", string(v))
		return true
	}
	return policy.Allows(g.grants)
}

// SetViewWithPermission switches to v when allowed. Otherwise the dashboard
// view is selected and the denial message is set for the error TTL.
func (g *Gate) SetViewWithPermission(v rbac.View) bool {
	if g.HasViewPermission(v) {
		g.state.CurrentView = v
		return true
	}
	g.deny(v)
	return false
}

// Render returns the view to show. The current view is checked again so a
// view that became forbidden since it was selected falls back to the dashboard.
func (g *Gate) Render() rbac.View {
	v := g.state.CurrentView
	if v == rbac.ViewDashboard || g.HasViewPermission(v) {
		return v
	}
	g.deny(v)
	return rbac.ViewDashboard
}

// Views reports, for every view in the policy table, whether it may be opened.
func (g *Gate) Views() map[rbac.View]bool {
	out := make(map[rbac.View]bool, len(g.policies)+1)
	out[rbac.ViewDashboard] = true
	for v, p := range g.policies {
		out[v] = p.Allows(g.grants)
	}
	return out
}

func (g *Gate) deny(v rbac.View) {
	g.logger.Info("view access denied", "view", string(v))
	g.state.CurrentView = rbac.ViewDashboard
	g.state.Error = DeniedMessage
	g.state.ErrorExpiresAt = g.now().Add(g.errorTTL)
}
