package permission

import (
	"sort"

	permissionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/permission"
)

// Registry maps a position name to the permission keys granted to it.
// A position without an entry grants nothing.
type Registry map[string][]string

// Positions returns the registry keys in sorted order.
func (r Registry) Positions() []string {
	out := make([]string, 0, len(r))
	for p := range r {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FromDataModel groups rows by position, keeping the row order inside each position.
func FromDataModel(rows []*permissionDatamodel.PositionPermission) Registry {
	reg := make(Registry)
	for _, row := range rows {
		reg[row.Position] = append(reg[row.Position], row.Permission)
	}
	return reg
}

func ToDataModel(position string, keys []string) []*permissionDatamodel.PositionPermission {
	rows := make([]*permissionDatamodel.PositionPermission, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, &permissionDatamodel.PositionPermission{Position: position, Permission: k})
	}
	return rows
}

func keysOf(rows []*permissionDatamodel.PositionPermission) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Permission)
	}
	return out
}
