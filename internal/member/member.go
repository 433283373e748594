package member

import (
	"strconv"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

// Profile is the signed in user as the dashboards see it.
type Profile struct {
	ID          int64     `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	Name        string    `json:"name" db:"name"`
	Role        rbac.Role `json:"role" db:"role"`
	Position    string    `json:"position" db:"position"`
	MemberID    *int64    `json:"memberId" db:"member_id"`
	TownID      *int64    `json:"townId" db:"town_id"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	Permissions []string  `json:"permissions" db:"-"`
	HomePath    string    `json:"homePath" db:"-"`
}

// FromSession builds a profile from the session snapshot alone.
func FromSession(u *auth.User) *Profile {
	id, _ := strconv.ParseInt(string(u.ID), 10, 64)
	return &Profile{
		ID:       id,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		Position: u.Position,
		MemberID: u.MemberID,
		TownID:   u.TownID,
		IsActive: true,
	}
}
