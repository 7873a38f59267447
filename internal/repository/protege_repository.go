package repository

import (
	"context"

	"github.com/secthall/contribution-backend/internal/model"
	"gorm.io/gorm"
)

// ProtegeRepository persists one-time protégé grants. Create races on
// the (actor_id, group_id) unique index and reports the conflict as
// gorm.ErrDuplicatedKey; Exists is only a cheap pre-check and must not
// be treated as the concurrency gate.
type ProtegeRepository interface {
	Create(ctx context.Context, grant *model.ProtegeGrant) error
	Exists(ctx context.Context, actorID, groupID int64) (bool, error)
	SetDB(db *gorm.DB)
}

type protegeRepository struct {
	db *gorm.DB
}

func NewProtegeRepository(db *gorm.DB) ProtegeRepository {
	return &protegeRepository{db: db}
}

func (r *protegeRepository) Create(ctx context.Context, grant *model.ProtegeGrant) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *protegeRepository) Exists(ctx context.Context, actorID, groupID int64) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.ProtegeGrant{}).
		Where("actor_id = ? AND group_id = ?", actorID, groupID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *protegeRepository) SetDB(db *gorm.DB) {
	r.db = db
}
