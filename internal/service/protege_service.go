package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/secthall/contribution-backend/internal/model"
	"github.com/secthall/contribution-backend/internal/repository"
	"github.com/secthall/contribution-backend/internal/roles"
	"gorm.io/gorm"
)

var (
	ErrAlreadyGranted   = errors.New("already_granted")
	ErrSelfTarget       = errors.New("self_target")
	ErrInvalidTarget    = errors.New("invalid_target")
	ErrIneligibleTarget = errors.New("ineligible_target")
)

// ProclaimResult is a successful protégé proclamation: the bonus that
// was awarded and the beneficiary's resulting rank state.
type ProclaimResult struct {
	Bonus int64        `json:"bonus"`
	Award *AwardResult `json:"award"`
}

// ProtegeService gates the one-time protégé bonus. A granter may
// proclaim at most one protégé per group, ever.
type ProtegeService interface {
	Proclaim(ctx context.Context, groupID, actorID, beneficiaryID int64) (*ProclaimResult, error)
}

type protegeService struct {
	grants      repository.ProtegeRepository
	ledger      LedgerService
	provider    roles.Provider
	announcer   roles.Announcer
	targetRoles []string
	bonus       int64
	channelID   int64
}

func NewProtegeService(grants repository.ProtegeRepository, ledger LedgerService, provider roles.Provider, announcer roles.Announcer, targetRoles []string, bonus, channelID int64) ProtegeService {
	return &protegeService{
		grants:      grants,
		ledger:      ledger,
		provider:    provider,
		announcer:   announcer,
		targetRoles: targetRoles,
		bonus:       bonus,
		channelID:   channelID,
	}
}

// Proclaim validates in a fixed order with no side effects, then
// commits the grant. The existence pre-check is only a fast path: the
// unique index on (actor_id, group_id) is what actually prevents two
// concurrent proclamations from both succeeding.
func (s *protegeService) Proclaim(ctx context.Context, groupID, actorID, beneficiaryID int64) (*ProclaimResult, error) {
	exists, err := s.grants.Exists(ctx, actorID, groupID)
	if err != nil {
		return nil, fmt.Errorf("grant lookup: %w", err)
	}
	if exists {
		return nil, ErrAlreadyGranted
	}
	if beneficiaryID == actorID {
		return nil, ErrSelfTarget
	}
	member, err := s.provider.Member(ctx, groupID, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("beneficiary lookup: %w", err)
	}
	if member.Bot {
		return nil, ErrInvalidTarget
	}
	if !holdsAny(member.Roles, s.targetRoles) {
		return nil, ErrIneligibleTarget
	}

	grant := &model.ProtegeGrant{
		ActorID:       actorID,
		BeneficiaryID: beneficiaryID,
		GroupID:       groupID,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.grants.Create(ctx, grant); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyGranted
		}
		return nil, fmt.Errorf("commit grant: %w", err)
	}

	// The grant is consumed from here on; the bonus and role sync are
	// follow-on effects, not part of the grant transaction.
	reason := fmt.Sprintf("Proclaimed as Protégé by <@%d>", actorID)
	award, err := s.ledger.Award(ctx, groupID, beneficiaryID, s.bonus, reason)
	if err != nil {
		return nil, fmt.Errorf("grant committed, bonus award failed: %w", err)
	}

	if s.announcer != nil && s.channelID != 0 {
		msg := fmt.Sprintf("📜 A Lineage Proclamation! <@%d> has recognized <@%d> as their Protégé — **%d** contribution points granted as a blessing of this bond.",
			actorID, beneficiaryID, s.bonus)
		if err := s.announcer.Post(ctx, s.channelID, msg); err != nil {
			log.Printf("[protege] actor=%d beneficiary=%d stage=announce_fail err=%v", actorID, beneficiaryID, err)
		}
	}

	return &ProclaimResult{Bonus: s.bonus, Award: award}, nil
}

func holdsAny(held, wanted []string) bool {
	for _, w := range wanted {
		for _, h := range held {
			if h == w {
				return true
			}
		}
	}
	return false
}
