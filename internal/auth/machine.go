package auth

import "github.com/sekreterlik/sekreterlik/internal/session"

type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type Event interface {
	event()
}

// LocalSnapshotLoaded carries the values read from the session store.
type LocalSnapshotLoaded struct {
	Snapshot session.Snapshot
}

// RemotePrincipalChanged carries the current remote principal, nil when signed out.
type RemotePrincipalChanged struct {
	Principal *Principal
}

type LoginStarted struct{}

type LoginSucceeded struct {
	User *User
}

type LoginFailed struct {
	Message string
}

type LoggedOut struct{}

func (LocalSnapshotLoaded) event()    {}
func (RemotePrincipalChanged) event() {}
func (LoginStarted) event()           {}
func (LoginSucceeded) event()         {}
func (LoginFailed) event()            {}
func (LoggedOut) event()              {}

// Effect is the side effect the owner of a Machine must perform after Apply.
type Effect int

const (
	EffectNone Effect = iota
	// EffectPurge removes the stored snapshot.
	EffectPurge
)

// Machine reconciles the stored snapshot with the remote principal. In remote
// mode both inputs are required and may arrive in either order; the decision
// only depends on their latest values.
type Machine struct {
	mode   Mode
	status Status
	user   *User
	err    string

	snapshot     session.Snapshot
	haveSnapshot bool
	principal    *Principal
	havePrinc    bool

	// status to return to when a login attempt fails
	beforeLogin Status
	// inputs arrived while authenticating and have not been reconciled
	stale bool
}

func NewMachine(mode Mode) *Machine {
	return &Machine{mode: mode, status: StatusUnknown}
}

func (m *Machine) Mode() Mode {
	return m.mode
}

func (m *Machine) Status() Status {
	return m.status
}

func (m *Machine) Loading() bool {
	return m.status == StatusUnknown || m.status == StatusAuthenticating
}

func (m *Machine) State() State {
	st := State{Loading: m.Loading(), Error: m.err}
	if m.status == StatusAuthenticated || (m.status == StatusAuthenticating && m.beforeLogin == StatusAuthenticated) {
		st.User = m.user
		st.IsLoggedIn = m.user != nil
	}
	return st
}

func (m *Machine) Apply(ev Event) Effect {
	switch e := ev.(type) {
	case LocalSnapshotLoaded:
		m.snapshot = e.Snapshot
		m.haveSnapshot = true
		if m.status == StatusAuthenticating {
			m.stale = true
			return EffectNone
		}
		return m.reconcile()

	case RemotePrincipalChanged:
		m.principal = e.Principal
		m.havePrinc = true
		if m.status == StatusAuthenticating {
			m.stale = true
			return EffectNone
		}
		return m.reconcile()

	case LoginStarted:
		if m.status != StatusAuthenticating {
			m.beforeLogin = m.status
			m.stale = false
		}
		m.status = StatusAuthenticating
		m.err = ""
		return EffectNone

	case LoginSucceeded:
		m.stale = false
		m.user = e.User
		m.status = StatusAuthenticated
		m.err = ""
		return EffectNone

	case LoginFailed:
		m.status = m.beforeLogin
		if m.status == StatusUnknown {
			m.status = StatusAnonymous
		}
		m.err = e.Message
		if !m.stale {
			return EffectNone
		}
		// inputs that arrived during the attempt still decide the outcome
		m.stale = false
		return m.reconcile()

	case LoggedOut:
		m.user = nil
		m.err = ""
		m.snapshot = session.Snapshot{}
		m.haveSnapshot = true
		m.status = StatusAnonymous
		return EffectPurge
	}
	return EffectNone
}

func (m *Machine) reconcile() Effect {
	if m.mode == ModeRemote {
		return m.reconcileRemote()
	}
	return m.reconcileLocal()
}

func (m *Machine) reconcileLocal() Effect {
	if !m.haveSnapshot {
		return EffectNone
	}
	if m.snapshot.IsLoggedIn != session.LoggedInFlag || m.snapshot.User == "" {
		m.anonymous()
		return EffectNone
	}
	u, err := ParseUser(m.snapshot.User)
	if err != nil {
		m.anonymous()
		return m.dropSnapshot()
	}
	m.authenticated(u)
	return EffectNone
}

func (m *Machine) reconcileRemote() Effect {
	if !m.haveSnapshot || !m.havePrinc {
		return EffectNone
	}
	if m.principal == nil {
		m.anonymous()
		return m.dropSnapshot()
	}
	if m.snapshot.User == "" {
		m.anonymous()
		return EffectNone
	}
	u, err := ParseUser(m.snapshot.User)
	if err != nil || !u.Matches(m.principal) {
		m.anonymous()
		return m.dropSnapshot()
	}
	m.authenticated(u)
	return EffectNone
}

func (m *Machine) authenticated(u *User) {
	m.user = u
	m.status = StatusAuthenticated
}

func (m *Machine) anonymous() {
	m.user = nil
	m.status = StatusAnonymous
}

func (m *Machine) dropSnapshot() Effect {
	m.snapshot = session.Snapshot{}
	return EffectPurge
}
