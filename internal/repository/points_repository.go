package repository

import (
	"context"
	"errors"
	"time"

	"github.com/secthall/contribution-backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

// LeaderboardRow is one aggregated leaderboard entry.
type LeaderboardRow struct {
	UserID int64 `json:"user_id"`
	Total  int64 `json:"total"`
}

// PointsRepository is the append-only ledger. There is deliberately no
// update or delete operation: committed transactions are permanent and
// totals are always derived by summation.
type PointsRepository interface {
	Append(ctx context.Context, tx *model.PointTransaction) error
	TotalPoints(ctx context.Context, userID, groupID int64, since *time.Time) (int64, error)
	Leaderboard(ctx context.Context, groupID int64, limit int, since *time.Time) ([]LeaderboardRow, error)
	SetDB(db *gorm.DB)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) Append(ctx context.Context, tx *model.PointTransaction) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *pointsRepository) TotalPoints(ctx context.Context, userID, groupID int64, since *time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).
		Model(&model.PointTransaction{}).
		Where("user_id = ? AND group_id = ?", userID, groupID)
	if since != nil {
		q = q.Where("timestamp >= ?", *since)
	}
	var total int64
	if err := q.Select("COALESCE(SUM(points), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Leaderboard aggregates per-user totals within a group, highest first.
// Equal totals order by ascending user_id so repeated reads are stable.
func (r *pointsRepository) Leaderboard(ctx context.Context, groupID int64, limit int, since *time.Time) ([]LeaderboardRow, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.db.WithContext(ctx).
		Model(&model.PointTransaction{}).
		Where("group_id = ?", groupID)
	if since != nil {
		q = q.Where("timestamp >= ?", *since)
	}
	var rows []LeaderboardRow
	if err := q.Select("user_id, SUM(points) AS total").
		Group("user_id").
		Order("total DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pointsRepository) SetDB(db *gorm.DB) {
	r.db = db
}
