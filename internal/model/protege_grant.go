package model

import "time"

// ProtegeGrant records the one-time protégé proclamation. The composite
// unique index on (actor_id, group_id) is the authority that prevents a
// granter from proclaiming twice in the same group; inserts race on it
// and the loser gets a duplicate-key error.
type ProtegeGrant struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ActorID       int64     `gorm:"column:actor_id;uniqueIndex:idx_protege_actor_group,priority:1;not null"`
	BeneficiaryID int64     `gorm:"column:beneficiary_id;not null"`
	GroupID       int64     `gorm:"column:group_id;uniqueIndex:idx_protege_actor_group,priority:2;not null"`
	Timestamp     time.Time `gorm:"column:timestamp;not null"`
}

func (ProtegeGrant) TableName() string {
	return "protege_log"
}
