package viewgate

import "github.com/sekreterlik/sekreterlik/internal/rbac"

type SwitchViewDTO struct {
	View string `json:"view"`
}

type DashboardResponse struct {
	CurrentView rbac.View          `json:"currentView"`
	Error       string             `json:"error,omitempty"`
	Views       map[rbac.View]bool `json:"views"`
	Permissions []string           `json:"permissions"`
}
