package member

import (
	"context"
	"log/slog"
	"strconv"

	errors "github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/auth"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

type Repository interface {
	// GetByID returns nil without error when the user does not exist.
	GetByID(ctx context.Context, userID int64) (*Profile, error)
}

type GrantsProvider interface {
	GrantsFor(ctx context.Context, position string) rbac.Grants
}

type Service struct {
	repo   Repository
	grants GrantsProvider
	logger *slog.Logger
}

func NewService(repo Repository, grants GrantsProvider, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		grants: grants,
		logger: logger,
	}
}

// GetProfile loads the stored user behind the session. Users whose id is not
// numeric only exist in the session, and users whose row is gone keep their
// session; both are answered from the snapshot.
func (s *Service) GetProfile(ctx context.Context, u *auth.User) (*Profile, error) {
	if u == nil {
		return nil, errors.ErrNotAuthenticated
	}

	var p *Profile
	id, err := strconv.ParseInt(string(u.ID), 10, 64)
	if err != nil {
		p = FromSession(u)
	} else {
		p, err = s.repo.GetByID(ctx, id)
		if err != nil {
			s.logger.Error("failed to load member", "user_id", id, "error", err)
			return nil, errors.NewInternalError("failed to load member", err)
		}
		if p == nil {
			s.logger.Warn("member row missing, answering from session", "user_id", id)
			p = FromSession(u)
		}
	}

	if p.Role == rbac.RoleAdmin {
		p.Permissions = rbac.AllGrants().Keys()
	} else {
		p.Permissions = s.grants.GrantsFor(ctx, p.Position).Keys()
	}
	p.HomePath = rbac.HomePath(p.Role)
	return p, nil
}
