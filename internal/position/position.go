package position

import (
	"time"

	positionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/position"
)

// Position is an entry of the catalog the authorization settings screen edits.
// Member positions stay free text; the catalog only lists the known ones.
type Position struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Position) ToResponse() PositionResponse {
	return PositionResponse{
		Name:        p.Name,
		Description: p.Description,
	}
}

func NewPosition(name, description string) *Position {
	now := time.Now()
	return &Position{
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ToDataModel(p *Position) *positionDatamodel.Position {
	return &positionDatamodel.Position{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModel(p *positionDatamodel.Position) *Position {
	return &Position{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
