package permission

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/core/common/validation"
	permissionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/permission"
	"github.com/sekreterlik/sekreterlik/internal/core/events"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*permissionDatamodel.PositionPermission, error)
	GetByPosition(ctx context.Context, position string) ([]*permissionDatamodel.PositionPermission, error)
	// ReplaceForPosition swaps the whole set of a position in one transaction.
	ReplaceForPosition(ctx context.Context, position string, rows []*permissionDatamodel.PositionPermission) error
}

// Service owns the position to permission mapping.
type Service struct {
	repo   RepositoryAPI
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

func (s *Service) GetAll(ctx context.Context) (Registry, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to load permission registry", "error", err)
		return nil, errors.NewInternalError("failed to load permissions", err)
	}
	return FromDataModel(rows), nil
}

// GetForPosition returns an empty, non-nil slice for a position without entries.
func (s *Service) GetForPosition(ctx context.Context, position string) ([]string, error) {
	position = strings.TrimSpace(position)
	if verr := validation.ValidatePosition(position); verr != nil {
		return nil, verr
	}

	rows, err := s.repo.GetByPosition(ctx, position)
	if err != nil {
		s.logger.Error("failed to load position permissions", "position", position, "error", err)
		return nil, errors.NewInternalError("failed to load permissions", err)
	}
	return keysOf(rows), nil
}

// SetForPosition replaces the permissions of position. Unknown keys are
// rejected before anything is written; duplicates are dropped.
func (s *Service) SetForPosition(ctx context.Context, position string, keys []string) ([]string, error) {
	position = strings.TrimSpace(position)
	if verr := validation.ValidatePosition(position); verr != nil {
		return nil, verr
	}
	if verr := validation.ValidatePermissionKeys(keys); verr != nil {
		return nil, verr
	}

	perms, err := rbac.ParsePermissions(keys)
	if err != nil {
		return nil, errors.NewValidationError(err.Error(), errors.ErrCodeUnknownPermission)
	}
	clean := make([]string, len(perms))
	for i, p := range perms {
		clean[i] = string(p)
	}

	if err := s.repo.ReplaceForPosition(ctx, position, ToDataModel(position, clean)); err != nil {
		s.logger.Error("failed to replace position permissions", "position", position, "error", err)
		return nil, errors.NewInternalError("failed to save permissions", err)
	}

	s.logger.Info("position permissions replaced", "position", position, "count", len(clean))
	if s.events != nil {
		if err := s.events.Publish(ctx, events.NewPermissionsUpdatedEvent(position, clean)); err != nil {
			s.logger.Warn("failed to publish permissions.updated", "position", position, "error", err)
		}
	}
	return clean, nil
}

// GrantsFor resolves what a member holding position may do. Any failure
// yields an empty set.
func (s *Service) GrantsFor(ctx context.Context, position string) rbac.Grants {
	if strings.TrimSpace(position) == "" {
		return rbac.Grants{}
	}
	keys, err := s.GetForPosition(ctx, position)
	if err != nil {
		s.logger.Warn("permission lookup failed, granting nothing", "position", position, "error", err)
		return rbac.Grants{}
	}
	return rbac.NewGrants(keys)
}

func (s *Service) Available() []rbac.PermissionInfo {
	return rbac.AvailablePermissions
}
