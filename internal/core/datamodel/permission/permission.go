package permission

import "time"

// PositionPermission is one granted permission key of one position.
type PositionPermission struct {
	ID         int64     `gorm:"primaryKey"`
	Position   string    `gorm:"column:position;not null;uniqueIndex:idx_position_permission"`
	Permission string    `gorm:"column:permission;not null;uniqueIndex:idx_position_permission"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PositionPermission) TableName() string {
	return "position_permissions"
}
