package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sekreterlik/sekreterlik/internal/core/events"
	"github.com/sekreterlik/sekreterlik/internal/session"
)

// GenericLoginError is recorded when the login backend cannot be reached.
const GenericLoginError = "Giriş sırasında bir hata oluştu, lütfen tekrar deneyin"

const defaultPrincipalTimeout = 5 * time.Second

// ProviderConfig holds what every Provider of the process shares.
type ProviderConfig struct {
	Mode             Mode
	Store            session.Store
	Backend          Backend
	Events           events.Publisher
	Logger           *slog.Logger
	PrincipalTimeout time.Duration
}

// Provider manages the login state of one session. It is created per request,
// mounted once and closed when the request ends.
type Provider struct {
	cfg       ProviderConfig
	source    PrincipalSource
	logger    *slog.Logger
	sessionID string

	mu          sync.Mutex
	machine     *Machine
	mountCtx    context.Context
	unsubscribe func()
}

// NewProvider builds a provider for sessionID, which may be empty for a
// visitor without session. source is only used in remote mode.
func NewProvider(cfg ProviderConfig, sessionID string, source PrincipalSource) *Provider {
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	if cfg.PrincipalTimeout <= 0 {
		cfg.PrincipalTimeout = defaultPrincipalTimeout
	}
	return &Provider{
		cfg:       cfg,
		source:    source,
		logger:    lg,
		sessionID: sessionID,
		machine:   NewMachine(cfg.Mode),
	}
}

func (p *Provider) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.State()
}

// Mount resolves the initial state. It returns once Loading is false.
func (p *Provider) Mount(ctx context.Context) State {
	p.mu.Lock()
	p.mountCtx = context.WithoutCancel(ctx)
	p.mu.Unlock()

	snap := p.loadSnapshot(ctx)

	if p.cfg.Mode == ModeLocal {
		p.apply(LocalSnapshotLoaded{Snapshot: snap})
		return p.State()
	}

	first := make(chan struct{})
	var once sync.Once
	if p.source == nil {
		p.apply(RemotePrincipalChanged{Principal: nil})
	} else {
		unsub := p.source.Subscribe(ctx, func(pr *Principal) {
			p.apply(RemotePrincipalChanged{Principal: pr})
			once.Do(func() { close(first) })
		})
		p.mu.Lock()
		p.unsubscribe = unsub
		p.mu.Unlock()
	}
	p.apply(LocalSnapshotLoaded{Snapshot: snap})

	if p.source != nil {
		timer := time.NewTimer(p.cfg.PrincipalTimeout)
		defer timer.Stop()
		select {
		case <-first:
		case <-ctx.Done():
			p.logger.Warn("remote principal not resolved before context ended", "error", ctx.Err())
			p.apply(RemotePrincipalChanged{Principal: nil})
		case <-timer.C:
			p.logger.Warn("remote principal not resolved in time", "timeout", p.cfg.PrincipalTimeout)
			p.apply(RemotePrincipalChanged{Principal: nil})
		}
	}
	return p.State()
}

// Close stops listening to the principal source.
func (p *Provider) Close() {
	p.mu.Lock()
	unsub := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Login checks credentials against the backend. On success the user snapshot
// is persisted under a fresh session id. On failure the previous session is
// left untouched and State().Error holds the message.
func (p *Provider) Login(ctx context.Context, username, password string) bool {
	p.apply(LoginStarted{})
	settled := false
	defer func() {
		if !settled {
			p.apply(LoginFailed{Message: GenericLoginError})
		}
	}()

	resp, err := p.cfg.Backend.Login(ctx, username, password)
	if err != nil {
		p.logger.Error("login backend failed", "username", username, "error", err)
		p.apply(LoginFailed{Message: GenericLoginError})
		settled = true
		return false
	}
	if !resp.Success || resp.User == nil {
		msg := resp.Message
		if msg == "" {
			msg = GenericLoginError
		}
		p.apply(LoginFailed{Message: msg})
		settled = true
		return false
	}

	raw, err := json.Marshal(resp.User)
	if err != nil {
		p.logger.Error("encode user snapshot", "error", err)
		p.apply(LoginFailed{Message: GenericLoginError})
		settled = true
		return false
	}

	oldID := p.SessionID()
	newID := session.NewID()
	if err := p.cfg.Store.Save(ctx, newID, session.Snapshot{User: string(raw), IsLoggedIn: session.LoggedInFlag}); err != nil {
		p.logger.Error("persist session snapshot", "error", err)
		p.apply(LoginFailed{Message: GenericLoginError})
		settled = true
		return false
	}
	if oldID != "" {
		if err := p.cfg.Store.Purge(ctx, oldID); err != nil {
			p.logger.Warn("purge previous session", "error", err)
		}
	}

	p.mu.Lock()
	p.sessionID = newID
	p.mu.Unlock()

	p.apply(LoginSucceeded{User: resp.User})
	settled = true
	p.publish(ctx, events.NewUserLoggedInEvent(string(resp.User.ID), resp.User.Username))
	return true
}

// Logout clears the in-memory state and the stored session. The backend is not called.
func (p *Provider) Logout(ctx context.Context) {
	before := p.State()
	p.apply(LoggedOut{})
	if before.User != nil {
		p.publish(ctx, events.NewUserLoggedOutEvent(string(before.User.ID), before.User.Username))
	}
}

func (p *Provider) loadSnapshot(ctx context.Context) session.Snapshot {
	id := p.SessionID()
	if id == "" {
		return session.Snapshot{}
	}
	snap, err := p.cfg.Store.Load(ctx, id)
	if err != nil {
		p.logger.Error("load session snapshot", "error", err)
		return session.Snapshot{}
	}
	return snap
}

func (p *Provider) apply(ev Event) {
	p.mu.Lock()
	effect := p.machine.Apply(ev)
	id := p.sessionID
	ctx := p.mountCtx
	p.mu.Unlock()

	if effect != EffectPurge || id == "" {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.cfg.Store.Purge(ctx, id); err != nil {
		p.logger.Error("purge session", "error", err)
	}
}

func (p *Provider) publish(ctx context.Context, ev events.Event) {
	if p.cfg.Events == nil {
		return
	}
	if err := p.cfg.Events.Publish(ctx, ev); err != nil {
		p.logger.Warn("publish session event", "event_type", ev.EventType(), "error", err)
	}
}
