package position

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	errors "github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/core/common/validation"
	positionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/position"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*positionDatamodel.Position, error)
	GetByName(ctx context.Context, name string) (*positionDatamodel.Position, error)
	Create(ctx context.Context, p *positionDatamodel.Position) error
}

// ErrNameTaken is returned by RepositoryAPI.Create when the name is already stored.
var ErrNameTaken = errors.NewConflictError("Bu görev zaten tanımlı", errors.ErrCodePositionExists)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetActive lists the active positions ordered by name.
func (s *Service) GetActive(ctx context.Context) ([]PositionResponse, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get positions from repository", "error", err)
		return nil, errors.NewInternalError("failed to get positions", err)
	}

	responses := make([]PositionResponse, 0, len(rows))
	for _, row := range rows {
		p := FromDataModel(row)
		if p.IsActive {
			responses = append(responses, p.ToResponse())
		}
	}

	s.logger.Debug("retrieved positions", "count", len(responses))
	return responses, nil
}

func (s *Service) Create(ctx context.Context, name, description string) (*Position, error) {
	name = strings.TrimSpace(name)
	if verr := validation.ValidatePosition(name); verr != nil {
		return nil, verr
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		s.logger.Error("failed to look up position", "name", name, "error", err)
		return nil, errors.NewInternalError("failed to create position", err)
	}
	if existing != nil {
		return nil, ErrNameTaken
	}

	p := NewPosition(name, strings.TrimSpace(description))
	row := ToDataModel(p)
	if err := s.repo.Create(ctx, row); err != nil {
		// lost a race with a concurrent create of the same name
		if stderrors.Is(err, ErrNameTaken) {
			return nil, ErrNameTaken
		}
		s.logger.Error("failed to create position", "name", name, "error", err)
		return nil, errors.NewInternalError("failed to create position", err)
	}

	s.logger.Info("position created", "name", name)
	return FromDataModel(row), nil
}
