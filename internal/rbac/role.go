package rbac

import (
	"errors"
	"strings"
)

// Role is the fixed account role used by route guards.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleMember            Role = "member"
	RoleDistrictPresident Role = "district_president"
	RoleTownPresident     Role = "town_president"
)

const (
	PathLogin                      = "/login"
	PathAdminHome                  = "/"
	PathMemberDashboard            = "/member-dashboard"
	PathDistrictPresidentDashboard = "/district-president-dashboard"
	PathTownPresidentDashboard     = "/town-president-dashboard"
)

var ErrUnknownRole = errors.New("unknown role")

var homePaths = map[Role]string{
	RoleAdmin:             PathAdminHome,
	RoleMember:            PathMemberDashboard,
	RoleDistrictPresident: PathDistrictPresidentDashboard,
	RoleTownPresident:     PathTownPresidentDashboard,
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := homePaths[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := homePaths[r]
	return ok
}

// HomePath is the landing page of a role. Unknown roles land on the login page.
func HomePath(r Role) string {
	if p, ok := homePaths[r]; ok {
		return p
	}
	return PathLogin
}
