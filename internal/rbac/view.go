package rbac

import "strings"

// View selects a sub-view of the member dashboard.
type View string

const (
	ViewDashboard       View = "dashboard"
	ViewProfile         View = "profile"
	ViewMemberList      View = "members"
	ViewAddMember       View = "add-member"
	ViewMeetingList     View = "meetings"
	ViewAddMeeting      View = "add-meeting"
	ViewAttendance      View = "attendance"
	ViewEventList       View = "events"
	ViewAddEvent        View = "add-event"
	ViewBallotBoxes     View = "ballot-boxes"
	ViewObservers       View = "observers"
	ViewRepresentatives View = "representatives"
	ViewSTK             View = "stk"
	ViewAddSTK          View = "add-stk"
	ViewNeighborhoods   View = "neighborhoods"
	ViewVillages        View = "villages"
	ViewReportList      View = "reports"
	ViewDocuments       View = "documents"
	ViewNotifications   View = "notifications"
	ViewElections       View = "elections"
)

// Policy is the access rule of one view. An empty Required list means open.
type Policy struct {
	Required []Permission
}

// Require allows the view when any one of perms is granted.
func Require(perms ...Permission) Policy {
	return Policy{Required: perms}
}

func Open() Policy {
	return Policy{}
}

func (p Policy) IsOpen() bool {
	return len(p.Required) == 0
}

func (p Policy) Allows(g Grants) bool {
	return p.IsOpen() || g.HasAny(p.Required...)
}

// ViewPolicies is the single table every dashboard view declares its access in.
// ViewDashboard is always allowed and is deliberately absent.
var ViewPolicies = map[View]Policy{
	ViewProfile:         Open(),
	ViewMemberList:      Require(ViewMembers, AddMember, EditMember, DeleteMember),
	ViewAddMember:       Require(AddMember),
	ViewMeetingList:     Require(ViewMeetings, AddMeeting),
	ViewAddMeeting:      Require(AddMeeting),
	ViewAttendance:      Require(TakeAttendance),
	ViewEventList:       Require(ViewEvents, AddEvent),
	ViewAddEvent:        Require(AddEvent),
	ViewBallotBoxes:     Require(AccessBallotBoxes),
	ViewObservers:       Require(ManageObservers, AccessBallotBoxes),
	ViewRepresentatives: Require(ManageRepresentatives),
	ViewSTK:             Require(ManageSTK, AddSTK),
	ViewAddSTK:          Require(AddSTK),
	ViewNeighborhoods:   Require(ManageNeighborhoods),
	ViewVillages:        Require(ManageVillages),
	ViewReportList:      Require(ViewReports),
	ViewDocuments:       Require(ManageDocuments),
	ViewNotifications:   Require(SendNotifications),
	ViewElections:       Require(ManageElections),
}

func ParseView(s string) View {
	return View(strings.TrimSpace(s))
}
