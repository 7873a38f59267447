package service

import (
	"context"
	"fmt"
	"time"

	"github.com/secthall/contribution-backend/internal/model"
	"github.com/secthall/contribution-backend/internal/repository"
)

// AwardResult is the outcome of one point award: the committed
// transaction plus the reconciliation it triggered.
type AwardResult struct {
	TransactionID uint64      `json:"transaction_id"`
	Sync          *SyncResult `json:"sync"`
}

// LedgerService records point transactions and answers totals and
// leaderboards. Awards accept any signed amount; the ledger itself
// performs no business validation (normal awards are positive,
// retroactive corrections may be negative).
type LedgerService interface {
	Award(ctx context.Context, groupID, userID, points int64, reason string) (*AwardResult, error)
	Total(ctx context.Context, groupID, userID int64, since *time.Time) (int64, error)
	Leaderboard(ctx context.Context, groupID int64, limit int, since *time.Time) ([]repository.LeaderboardRow, error)
}

type ledgerService struct {
	points repository.PointsRepository
	ranks  RankService
}

func NewLedgerService(points repository.PointsRepository, ranks RankService) LedgerService {
	return &ledgerService{points: points, ranks: ranks}
}

// Award appends the transaction and reconciles the member's rank roles.
// Once the append commits it is permanent: a failure in the
// reconciliation step never rolls it back, it only surfaces in the
// sync result (or, for storage failures, as an error the caller can
// respond to by reconciling again later).
func (s *ledgerService) Award(ctx context.Context, groupID, userID, points int64, reason string) (*AwardResult, error) {
	tx := &model.PointTransaction{
		UserID:    userID,
		GroupID:   groupID,
		Points:    points,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	if err := s.points.Append(ctx, tx); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}
	sync, err := s.ranks.Reconcile(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("transaction %d committed, reconcile failed: %w", tx.ID, err)
	}
	return &AwardResult{TransactionID: tx.ID, Sync: sync}, nil
}

func (s *ledgerService) Total(ctx context.Context, groupID, userID int64, since *time.Time) (int64, error) {
	return s.points.TotalPoints(ctx, userID, groupID, since)
}

func (s *ledgerService) Leaderboard(ctx context.Context, groupID int64, limit int, since *time.Time) ([]repository.LeaderboardRow, error) {
	return s.points.Leaderboard(ctx, groupID, limit, since)
}
