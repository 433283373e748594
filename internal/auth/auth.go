package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

// UserID is the stored user identifier. Snapshots written by older clients
// carry it as a JSON number, so both forms are accepted and compared as strings.
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

func UserIDFromInt(id int64) UserID {
	return UserID(strconv.FormatInt(id, 10))
}

// User is the session-scoped account snapshot persisted on login.
type User struct {
	ID       UserID    `json:"id"`
	UID      string    `json:"uid,omitempty"`
	Username string    `json:"username"`
	Name     string    `json:"name,omitempty"`
	Role     rbac.Role `json:"role"`
	Position string    `json:"position,omitempty"`
	MemberID *int64    `json:"memberId,omitempty"`
	TownID   *int64    `json:"townId,omitempty"`
}

var ErrMalformedSnapshot = errors.New("malformed user snapshot")

// ParseUser decodes a stored user snapshot.
func ParseUser(raw string) (*User, error) {
	if raw == "" {
		return nil, ErrMalformedSnapshot
	}
	var u *User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u == nil {
		return nil, ErrMalformedSnapshot
	}
	return u, nil
}

// Principal is the identity asserted by the remote identity provider.
type Principal struct {
	UID   string
	Email string
}

// Matches reports whether the stored user belongs to the principal.
func (u *User) Matches(p *Principal) bool {
	if u == nil || p == nil || p.UID == "" {
		return false
	}
	return string(u.ID) == p.UID || u.UID == p.UID
}

// State is the triple every gate reads, plus the last login error.
type State struct {
	User       *User  `json:"user"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	Loading    bool   `json:"loading"`
	Error      string `json:"error,omitempty"`
}

func (s State) Role() rbac.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s State) Position() string {
	if s.User == nil {
		return ""
	}
	return s.User.Position
}

// PrincipalSource delivers remote identity changes. The callback receives nil
// when no principal is signed in. Subscribe returns the unsubscribe func.
type PrincipalSource interface {
	Subscribe(ctx context.Context, fn func(*Principal)) (unsubscribe func())
}

// Backend checks credentials. A well-formed rejection is a LoginResponse with
// Success false; errors are reserved for transport or storage failures.
type Backend interface {
	Login(ctx context.Context, username, password string) (LoginResponse, error)
}

type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

func ModeFor(useRemoteIdentity bool) Mode {
	if useRemoteIdentity {
		return ModeRemote
	}
	return ModeLocal
}

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}
