package permission

import "github.com/sekreterlik/sekreterlik/internal/rbac"

type SetPermissionsDTO struct {
	Permissions []string `json:"permissions"`
}

type SetPermissionsResponse struct {
	Success     bool     `json:"success"`
	Position    string   `json:"position"`
	Permissions []string `json:"permissions"`
}

type AvailablePermissionsResponse struct {
	Permissions []rbac.PermissionInfo `json:"permissions"`
}

type MyPermissionsResponse struct {
	Position    string   `json:"position"`
	Permissions []string `json:"permissions"`
}
