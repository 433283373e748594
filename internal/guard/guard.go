package guard

import (
	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

// Kind names a route guard.
type Kind int

const (
	AdminRoute Kind = iota
	MemberRoute
	STKManagerRoute
	DistrictPresidentRoute
	TownPresidentRoute
	PublicRoute
)

func (k Kind) String() string {
	switch k {
	case AdminRoute:
		return "admin"
	case MemberRoute:
		return "member"
	case STKManagerRoute:
		return "stk_manager"
	case DistrictPresidentRoute:
		return "district_president"
	case TownPresidentRoute:
		return "town_president"
	case PublicRoute:
		return "public"
	default:
		return "unknown"
	}
}

type Outcome int

const (
	Render Outcome = iota
	Loading
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "render"
	}
}

// Decision is what a guard does with a request. Target is set only for Redirect.
type Decision struct {
	Outcome Outcome
	Target  string
}

func render() Decision {
	return Decision{Outcome: Render}
}

func redirect(target string) Decision {
	return Decision{Outcome: Redirect, Target: target}
}

// Decide evaluates a guard against the session state. It has no side effects.
func Decide(kind Kind, st auth.State) Decision {
	if st.Loading {
		return Decision{Outcome: Loading}
	}

	if kind == PublicRoute {
		if st.IsLoggedIn && st.User != nil {
			return redirect(rbac.HomePath(st.User.Role))
		}
		return render()
	}

	if !st.IsLoggedIn || st.User == nil {
		return redirect(rbac.PathLogin)
	}

	role := st.User.Role
	switch kind {
	case AdminRoute:
		if role == rbac.RoleAdmin {
			return render()
		}
		return redirect(rbac.HomePath(role))

	case MemberRoute:
		if role == rbac.RoleAdmin || role == rbac.RoleMember {
			return render()
		}
		return redirect(rbac.HomePath(role))

	case STKManagerRoute:
		if role == rbac.RoleAdmin {
			return render()
		}
		if role == rbac.RoleMember && rbac.IsSTKManagerPosition(st.User.Position) {
			return render()
		}
		return redirect(rbac.PathMemberDashboard)

	case DistrictPresidentRoute:
		if role == rbac.RoleAdmin || role == rbac.RoleDistrictPresident {
			return render()
		}
		return redirect(rbac.PathLogin)

	case TownPresidentRoute:
		if role == rbac.RoleAdmin || role == rbac.RoleTownPresident {
			return render()
		}
		return redirect(rbac.PathLogin)
	}

	return redirect(rbac.PathLogin)
}
