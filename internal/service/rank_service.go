package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/secthall/contribution-backend/internal/rank"
	"github.com/secthall/contribution-backend/internal/repository"
	"github.com/secthall/contribution-backend/internal/roles"
	"github.com/secthall/contribution-backend/internal/syncctx"
	"golang.org/x/sync/singleflight"
)

// SyncResult reports what one reconciliation did. Incomplete means a
// role mutation or lookup failed at the gateway; the ledger is already
// durable and the projection can be repaired by reconciling again.
type SyncResult struct {
	Total      int64     `json:"total"`
	Tier       rank.Tier `json:"tier"`
	Changed    bool      `json:"changed"`
	Promoted   bool      `json:"promoted"`
	Announced  bool      `json:"announced"`
	Incomplete bool      `json:"incomplete"`
	Skipped    bool      `json:"skipped"`
}

// RankService makes a member's externally visible rank roles equal to
// exactly the tier resolved from their current total.
type RankService interface {
	Reconcile(ctx context.Context, groupID, memberID int64) (*SyncResult, error)
}

// FlavorSource decorates promotion announcements; optional.
type FlavorSource interface {
	Congratulation(ctx context.Context, role string, total int64) (string, error)
}

type rankService struct {
	points    repository.PointsRepository
	provider  roles.Provider
	announcer roles.Announcer
	tiers     rank.Table
	channelID int64
	flavor    FlavorSource
	flight    singleflight.Group
}

func NewRankService(points repository.PointsRepository, provider roles.Provider, announcer roles.Announcer, tiers rank.Table, channelID int64, flavor FlavorSource) RankService {
	return &rankService{
		points:    points,
		provider:  provider,
		announcer: announcer,
		tiers:     tiers,
		channelID: channelID,
		flavor:    flavor,
	}
}

// Reconcile is single-flighted per (group, member): concurrent calls
// for the same member collapse onto one execution and share its result,
// so two near-simultaneous awards cannot issue contradictory role
// mutations.
func (s *rankService) Reconcile(ctx context.Context, groupID, memberID int64) (*SyncResult, error) {
	key := fmt.Sprintf("%d/%d", groupID, memberID)
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.reconcile(ctx, groupID, memberID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SyncResult), nil
}

func (s *rankService) reconcile(ctx context.Context, groupID, memberID int64) (*SyncResult, error) {
	if syncctx.RID(ctx) == "" {
		ctx = syncctx.WithRID(ctx, uuid.NewString()[:8])
	}
	ctx = syncctx.WithMemberID(ctx, memberID)
	rid := syncctx.RID(ctx)

	total, err := s.points.TotalPoints(ctx, memberID, groupID, nil)
	if err != nil {
		return nil, fmt.Errorf("total points: %w", err)
	}
	target := s.tiers.Resolve(total)
	res := &SyncResult{Total: total, Tier: target}

	member, err := s.provider.Member(ctx, groupID, memberID)
	if err != nil {
		log.Printf("[sync] rid=%s member=%d stage=member_fetch_fail err=%v", rid, memberID, err)
		res.Incomplete = true
		return res, nil
	}
	if member.Bot {
		res.Skipped = true
		return res, nil
	}

	rankRoles := s.tiers.RoleNames()
	var current []string
	hasTarget := false
	for _, name := range member.Roles {
		if !rankRoles[name] {
			continue
		}
		current = append(current, name)
		if name == target.Role {
			hasTarget = true
		}
	}

	// Already exactly {target}: true no-op, no gateway calls, no announcement.
	if hasTarget && len(current) == 1 {
		return res, nil
	}

	prevBest, hadPrev := s.tiers.BestOf(current)

	for _, name := range current {
		if name == target.Role {
			continue
		}
		if err := s.provider.RemoveRole(ctx, groupID, memberID, name); err != nil {
			log.Printf("[sync] rid=%s member=%d stage=remove_role_fail role=%q err=%v", rid, memberID, name, err)
			res.Incomplete = true
			continue
		}
		res.Changed = true
	}

	added := false
	if !hasTarget {
		if err := s.provider.AddRole(ctx, groupID, memberID, target.Role); err != nil {
			log.Printf("[sync] rid=%s member=%d stage=add_role_fail role=%q err=%v", rid, memberID, target.Role, err)
			res.Incomplete = true
		} else {
			added = true
			res.Changed = true
		}
	}

	// Only an upward move announces; cleaning up stale roles after a
	// retroactive deduction stays silent.
	if added && (!hadPrev || target.Threshold > prevBest.Threshold) {
		res.Promoted = true
		if s.announcer != nil && s.channelID != 0 {
			if err := s.announcer.Post(ctx, s.channelID, s.promotionMessage(ctx, memberID, target, total)); err != nil {
				log.Printf("[sync] rid=%s member=%d stage=announce_fail err=%v", rid, memberID, err)
			} else {
				res.Announced = true
			}
		}
		log.Printf("[sync] rid=%s member=%d stage=promoted tier=%s total=%d", rid, memberID, target.Key, total)
	}

	return res, nil
}

func (s *rankService) promotionMessage(ctx context.Context, memberID int64, target rank.Tier, total int64) string {
	msg := fmt.Sprintf("🎉 Congratulations <@%d>, you have ascended to the rank of **%s**! Total contribution points: %d", memberID, target.Role, total)
	if s.flavor == nil {
		return msg
	}
	line, err := s.flavor.Congratulation(ctx, target.Role, total)
	if err != nil {
		return msg
	}
	return msg + "\n" + line
}
