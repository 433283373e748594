package position

import (
	"context"
	"net/http"

	"github.com/sekreterlik/sekreterlik/internal/transport"
)

type ServiceAPI interface {
	GetActive(ctx context.Context) ([]PositionResponse, error)
	Create(ctx context.Context, name, description string) (*Position, error)
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

func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.Service.GetActive(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err, "GetPositions: failed to get positions")
		return
	}

	h.WriteJSON(w, http.StatusOK, PositionsResponse{
		Positions: positions,
	})
}

func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var dto CreatePositionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err, "CreatePosition: invalid request body")
		return
	}

	p, err := h.Service.Create(r.Context(), dto.Name, dto.Description)
	if err != nil {
		h.HandleServiceError(w, r, err, "CreatePosition: failed to create position")
		return
	}

	h.WriteJSON(w, http.StatusCreated, p.ToResponse())
}
