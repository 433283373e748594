package postgres

import (
	"context"

	"gorm.io/gorm"

	permissionDatamodel "github.com/sekreterlik/sekreterlik/internal/core/datamodel/permission"
	"github.com/sekreterlik/sekreterlik/internal/permission"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetAll(ctx context.Context) ([]*permissionDatamodel.PositionPermission, error) {
	var rows []*permissionDatamodel.PositionPermission
	err := r.db.WithContext(ctx).Order("position ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *PermissionRepository) GetByPosition(ctx context.Context, position string) ([]*permissionDatamodel.PositionPermission, error) {
	var rows []*permissionDatamodel.PositionPermission
	err := r.db.WithContext(ctx).Where("position = ?", position).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *PermissionRepository) ReplaceForPosition(ctx context.Context, position string, rows []*permissionDatamodel.PositionPermission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("position = ?", position).Delete(&permissionDatamodel.PositionPermission{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}
