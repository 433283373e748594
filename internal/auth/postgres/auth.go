package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sekreterlik/sekreterlik/internal/auth"
	userDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

// GetByUsername returns nil without error when no user has that name.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
