package position

type CreatePositionDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PositionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PositionsResponse struct {
	Positions []PositionResponse `json:"positions"`
}
