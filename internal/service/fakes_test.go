package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/secthall/contribution-backend/internal/model"
	"github.com/secthall/contribution-backend/internal/repository"
	"github.com/secthall/contribution-backend/internal/roles"
	"gorm.io/gorm"
)

// fakePoints is an in-memory PointsRepository honoring the documented
// contract: append-only, COALESCE-zero totals, leaderboard sorted by
// total descending then user_id ascending.
type fakePoints struct {
	mu        sync.Mutex
	rows      []model.PointTransaction
	nextID    uint64
	appendErr error
	totalErr  error
}

func (f *fakePoints) Append(_ context.Context, tx *model.PointTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.nextID++
	tx.ID = f.nextID
	f.rows = append(f.rows, *tx)
	return nil
}

func (f *fakePoints) TotalPoints(_ context.Context, userID, groupID int64, since *time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totalErr != nil {
		return 0, f.totalErr
	}
	var total int64
	for _, row := range f.rows {
		if row.UserID != userID || row.GroupID != groupID {
			continue
		}
		if since != nil && row.Timestamp.Before(*since) {
			continue
		}
		total += row.Points
	}
	return total, nil
}

func (f *fakePoints) Leaderboard(_ context.Context, groupID int64, limit int, since *time.Time) ([]repository.LeaderboardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	totals := map[int64]int64{}
	for _, row := range f.rows {
		if row.GroupID != groupID {
			continue
		}
		if since != nil && row.Timestamp.Before(*since) {
			continue
		}
		totals[row.UserID] += row.Points
	}
	out := make([]repository.LeaderboardRow, 0, len(totals))
	for userID, total := range totals {
		out = append(out, repository.LeaderboardRow{UserID: userID, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePoints) SetDB(*gorm.DB) {}

// fakeProvider is an in-memory roles.Provider whose mutations take
// effect immediately, so a reconciliation following another observes
// the first one's writes.
type fakeProvider struct {
	mu          sync.Mutex
	members     map[int64]*roles.Member
	memberErr   error
	addErr      error
	removeErr   error
	memberDelay time.Duration
	memberCalls int
	addCalls    []string
	removeCalls []string
}

func newFakeProvider(members ...*roles.Member) *fakeProvider {
	m := make(map[int64]*roles.Member, len(members))
	for _, member := range members {
		m[member.ID] = member
	}
	return &fakeProvider{members: m}
}

func (f *fakeProvider) Member(_ context.Context, _, memberID int64) (*roles.Member, error) {
	if f.memberDelay > 0 {
		time.Sleep(f.memberDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	m, ok := f.members[memberID]
	if !ok {
		return nil, roles.ErrNotFound
	}
	cp := *m
	cp.Roles = append([]string(nil), m.Roles...)
	return &cp, nil
}

func (f *fakeProvider) AddRole(_ context.Context, _, memberID int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.addCalls = append(f.addCalls, fmt.Sprintf("%d:%s", memberID, role))
	if m, ok := f.members[memberID]; ok {
		m.Roles = append(m.Roles, role)
	}
	return nil
}

func (f *fakeProvider) RemoveRole(_ context.Context, _, memberID int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removeCalls = append(f.removeCalls, fmt.Sprintf("%d:%s", memberID, role))
	if m, ok := f.members[memberID]; ok {
		kept := m.Roles[:0]
		for _, r := range m.Roles {
			if r != role {
				kept = append(kept, r)
			}
		}
		m.Roles = kept
	}
	return nil
}

type fakeAnnouncer struct {
	mu      sync.Mutex
	posts   []string
	postErr error
}

func (f *fakeAnnouncer) Post(_ context.Context, _ int64, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posts = append(f.posts, message)
	return nil
}

// fakeGrants enforces the (actor_id, group_id) uniqueness under a
// mutex, mirroring the database's unique index.
type fakeGrants struct {
	mu        sync.Mutex
	grants    map[string]bool
	createErr error
	existsErr error
}

func newFakeGrants() *fakeGrants {
	return &fakeGrants{grants: map[string]bool{}}
}

func grantKey(actorID, groupID int64) string {
	return fmt.Sprintf("%d/%d", actorID, groupID)
}

func (f *fakeGrants) Create(_ context.Context, grant *model.ProtegeGrant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	key := grantKey(grant.ActorID, grant.GroupID)
	if f.grants[key] {
		return gorm.ErrDuplicatedKey
	}
	f.grants[key] = true
	return nil
}

func (f *fakeGrants) Exists(_ context.Context, actorID, groupID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.grants[grantKey(actorID, groupID)], nil
}

func (f *fakeGrants) SetDB(*gorm.DB) {}

// fakeRanks stubs RankService for ledger tests.
type fakeRanks struct {
	mu     sync.Mutex
	calls  []string
	result *SyncResult
	err    error
}

func (f *fakeRanks) Reconcile(_ context.Context, groupID, memberID int64) (*SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%d/%d", groupID, memberID))
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &SyncResult{}, nil
}

// fakeLedger stubs LedgerService for guard tests.
type fakeLedger struct {
	mu       sync.Mutex
	awards   []string
	awardErr error
	result   *AwardResult
}

func (f *fakeLedger) Award(_ context.Context, groupID, userID, points int64, reason string) (*AwardResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.awardErr != nil {
		return nil, f.awardErr
	}
	f.awards = append(f.awards, fmt.Sprintf("%d/%d/%d/%s", groupID, userID, points, reason))
	if f.result != nil {
		return f.result, nil
	}
	return &AwardResult{}, nil
}

func (f *fakeLedger) Total(context.Context, int64, int64, *time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeLedger) Leaderboard(context.Context, int64, int, *time.Time) ([]repository.LeaderboardRow, error) {
	return nil, nil
}
