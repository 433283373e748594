package session

import (
	"context"
	"errors"
)

// Keys of the values kept for one session.
const (
	KeyUser          = "user"
	KeyIsLoggedIn    = "isLoggedIn"
	KeyDashboardView = "dashboardView"
)

// LoggedInFlag is the only value of KeyIsLoggedIn that counts as logged in.
const LoggedInFlag = "true"

var ErrEmptySessionID = errors.New("session id is empty")

// Snapshot is the persisted login state of one session, stored verbatim.
// User holds the serialized user object and may be unparseable.
type Snapshot struct {
	User       string
	IsLoggedIn string
}

func (s Snapshot) Empty() bool {
	return s.User == "" && s.IsLoggedIn == ""
}

// Store persists session values. A session that does not exist loads as an
// empty Snapshot and an empty view, never as an error.
type Store interface {
	Load(ctx context.Context, id string) (Snapshot, error)
	Save(ctx context.Context, id string, snap Snapshot) error
	// Purge removes every value of the session.
	Purge(ctx context.Context, id string) error
	LoadView(ctx context.Context, id string) (string, error)
	SaveView(ctx context.Context, id string, raw string) error
}
