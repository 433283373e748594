package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	positionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/position"
	"github.com/sekreterlik/sekreterlik/internal/position"
)

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) position.RepositoryAPI {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) GetAll(ctx context.Context) ([]*positionDatamodel.Position, error) {
	var positions []*positionDatamodel.Position
	err := r.db.WithContext(ctx).Order("name ASC").Find(&positions).Error
	return positions, err
}

func (r *PositionRepository) GetByName(ctx context.Context, name string) (*positionDatamodel.Position, error) {
	var p positionDatamodel.Position
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Create reports a unique violation on name as position.ErrNameTaken.
func (r *PositionRepository) Create(ctx context.Context, p *positionDatamodel.Position) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err == nil {
		return nil
	}
	if t, ok := r.db.Dialector.(gorm.ErrorTranslator); ok {
		err = t.Translate(err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return position.ErrNameTaken
	}
	return err
}
