package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/core/common/validation"
	userDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/user"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

type RepositoryAPI interface {
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
}

// Service is the login backend: it checks credentials against the users table.
type Service struct {
	repo       RepositoryAPI
	logger     *slog.Logger
	bcryptCost int
}

var _ Backend = (*Service)(nil)

func NewService(repo RepositoryAPI, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	if verr := validation.ValidateCredentials(username, password); verr != nil {
		return LoginResponse{Success: false, Message: verr.GetDetailedMessage()}, nil
	}

	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to load user", "username", username, "error", err)
		return LoginResponse{}, errors.NewInternalError("failed to load user", err)
	}
	if row == nil || !row.IsActive {
		s.logger.Info("login rejected", "username", username, "reason", "unknown or inactive user")
		return rejected(), nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", "username", username, "reason", "password mismatch")
		return rejected(), nil
	}

	role, err := rbac.ParseRole(row.Role)
	if err != nil {
		s.logger.Error("user has unknown role", "user_id", row.ID, "role", row.Role)
		return rejected(), nil
	}

	s.logger.Info("login accepted", "user_id", row.ID, "role", role)
	return LoginResponse{Success: true, User: FromDataModel(row, role)}, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func FromDataModel(row *userDatamodel.User, role rbac.Role) *User {
	return &User{
		ID:       UserIDFromInt(row.ID),
		UID:      row.IdentityUID,
		Username: row.Username,
		Name:     row.Name,
		Role:     role,
		Position: row.Position,
		MemberID: row.MemberID,
		TownID:   row.TownID,
	}
}

func rejected() LoginResponse {
	return LoginResponse{Success: false, Message: errors.InvalidCredentialsMessage}
}
