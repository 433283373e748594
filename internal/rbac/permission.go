package rbac

import (
	"errors"
	"fmt"
	"sort"
)

// Permission is a single grantable capability. The set of valid keys is closed:
// every key the service recognises is declared below and listed in AvailablePermissions.
type Permission string

const (
	AddMember             Permission = "add_member"
	EditMember            Permission = "edit_member"
	DeleteMember          Permission = "delete_member"
	ViewMembers           Permission = "view_members"
	AddMeeting            Permission = "add_meeting"
	ViewMeetings          Permission = "view_meetings"
	TakeAttendance        Permission = "take_attendance"
	AddEvent              Permission = "add_event"
	ViewEvents            Permission = "view_events"
	AccessBallotBoxes     Permission = "access_ballot_boxes"
	ManageObservers       Permission = "manage_observers"
	ManageRepresentatives Permission = "manage_representatives"
	AddSTK                Permission = "add_stk"
	ManageSTK             Permission = "manage_stk"
	ManageNeighborhoods   Permission = "manage_neighborhoods"
	ManageVillages        Permission = "manage_villages"
	ViewReports           Permission = "view_reports"
	ManageDocuments       Permission = "manage_documents"
	SendNotifications     Permission = "send_notifications"
	ManageElections       Permission = "manage_elections"
)

var ErrUnknownPermission = errors.New("unknown permission")

// PermissionInfo describes a permission for the authorization settings screen.
type PermissionInfo struct {
	Key   Permission `json:"key"`
	Label string     `json:"label"`
}

var AvailablePermissions = []PermissionInfo{
	{AddMember, "Üye ekleme"},
	{EditMember, "Üye düzenleme"},
	{DeleteMember, "Üye silme"},
	{ViewMembers, "Üyeleri görüntüleme"},
	{AddMeeting, "Toplantı oluşturma"},
	{ViewMeetings, "Toplantıları görüntüleme"},
	{TakeAttendance, "Yoklama alma"},
	{AddEvent, "Etkinlik oluşturma"},
	{ViewEvents, "Etkinlikleri görüntüleme"},
	{AccessBallotBoxes, "Sandıklara erişim"},
	{ManageObservers, "Müşahit yönetimi"},
	{ManageRepresentatives, "Temsilci yönetimi"},
	{AddSTK, "STK ekleme"},
	{ManageSTK, "STK yönetimi"},
	{ManageNeighborhoods, "Mahalle yönetimi"},
	{ManageVillages, "Köy yönetimi"},
	{ViewReports, "Raporları görüntüleme"},
	{ManageDocuments, "Belge yönetimi"},
	{SendNotifications, "Bildirim gönderme"},
	{ManageElections, "Seçim hazırlık yönetimi"},
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(AvailablePermissions))
	for _, p := range AvailablePermissions {
		m[p.Key] = struct{}{}
	}
	return m
}()

func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if _, ok := known[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}

// ParsePermissions validates every key and drops duplicates, keeping first-seen order.
func ParsePermissions(keys []string) ([]Permission, error) {
	out := make([]Permission, 0, len(keys))
	seen := make(map[Permission]struct{}, len(keys))
	for _, k := range keys {
		p, err := ParsePermission(k)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// Grants is the set of permissions held by a user through their position.
type Grants map[Permission]struct{}

// NewGrants builds a grant set from raw keys. Keys outside the closed set are
// ignored so a stale registry row never grants anything.
func NewGrants(keys []string) Grants {
	g := make(Grants, len(keys))
	for _, k := range keys {
		if p, err := ParsePermission(k); err == nil {
			g[p] = struct{}{}
		}
	}
	return g
}

func (g Grants) Has(p Permission) bool {
	_, ok := g[p]
	return ok
}

// HasAny reports whether at least one of required is granted. Matching is exact.
func (g Grants) HasAny(required ...Permission) bool {
	for _, p := range required {
		if g.Has(p) {
			return true
		}
	}
	return false
}

func (g Grants) Keys() []string {
	out := make([]string, 0, len(g))
	for p := range g {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// AllGrants holds every known permission.
func AllGrants() Grants {
	g := make(Grants, len(AvailablePermissions))
	for _, p := range AvailablePermissions {
		g[p.Key] = struct{}{}
	}
	return g
}
