package permission

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
	"github.com/sekreterlik/sekreterlik/internal/transport"
)

type ServiceAPI interface {
	GetAll(ctx context.Context) (Registry, error)
	GetForPosition(ctx context.Context, position string) ([]string, error)
	SetForPosition(ctx context.Context, position string, keys []string) ([]string, error)
	GrantsFor(ctx context.Context, position string) rbac.Grants
	Available() []rbac.PermissionInfo
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetAll handles GET /permissions.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err, "GetAll: failed to load permissions")
		return
	}
	h.WriteJSON(w, http.StatusOK, reg)
}

// GetForPosition handles GET /permissions/{position}.
func (h *Handler) GetForPosition(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Service.GetForPosition(r.Context(), positionParam(r))
	if err != nil {
		h.HandleServiceError(w, r, err, "GetForPosition: failed to load permissions")
		return
	}
	h.WriteJSON(w, http.StatusOK, keys)
}

// SetForPosition handles POST /permissions/{position}. The body replaces the whole set.
func (h *Handler) SetForPosition(w http.ResponseWriter, r *http.Request) {
	var dto SetPermissionsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "SetForPosition: invalid request body")
		return
	}

	position := positionParam(r)
	keys, err := h.Service.SetForPosition(r.Context(), position, dto.Permissions)
	if err != nil {
		h.HandleServiceError(w, r, err, "SetForPosition: failed to save permissions")
		return
	}

	h.WriteJSON(w, http.StatusOK, SetPermissionsResponse{
		Success:     true,
		Position:    position,
		Permissions: keys,
	})
}

// GetAvailable handles GET /permission-catalog.
func (h *Handler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, AvailablePermissionsResponse{Permissions: h.Service.Available()})
}

// GetMine handles GET /members/me/permissions.
func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	st := auth.StateFromContext(r.Context())
	position := st.Position()
	h.WriteJSON(w, http.StatusOK, MyPermissionsResponse{
		Position:    position,
		Permissions: h.Service.GrantsFor(r.Context(), position).Keys(),
	})
}

// positionParam returns the decoded position name. chi routes on RawPath when
// it is set (a name with "/" in it), and then the param is still escaped.
func positionParam(r *http.Request) string {
	param := chi.URLParam(r, "position")
	if r.URL.RawPath == "" {
		return param
	}
	if p, err := url.PathUnescape(param); err == nil {
		return p
	}
	return param
}
