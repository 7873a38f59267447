package model

import "time"

// PointTransaction is one row of the append-only contribution points
// ledger. Rows are never updated or deleted; a member's total is the
// sum of their rows. Points may be negative (retroactive corrections).
type PointTransaction struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;index:idx_points_user_group,priority:1;not null"`
	GroupID   int64     `gorm:"column:group_id;index:idx_points_user_group,priority:2;index:idx_points_group;not null"`
	Points    int64     `gorm:"column:points;not null"`
	Reason    string    `gorm:"column:reason;size:255"`
	Timestamp time.Time `gorm:"column:timestamp;index;not null"`
}

func (PointTransaction) TableName() string {
	return "points_log"
}
