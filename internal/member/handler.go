package member

import (
	"context"
	"net/http"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/transport"
)

type ServiceAPI interface {
	GetProfile(ctx context.Context, u *auth.User) (*Profile, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentMember handles GET /members/me
func (h *Handler) GetCurrentMember(w http.ResponseWriter, r *http.Request) {
	st := auth.StateFromContext(r.Context())
	if !st.IsLoggedIn || st.User == nil {
		h.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.Service.GetProfile(r.Context(), st.User)
	if err != nil {
		h.HandleServiceError(w, r, err, "GetCurrentMember: failed to load member")
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}
