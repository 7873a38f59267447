package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/secthall/contribution-backend/internal/model"
	"github.com/secthall/contribution-backend/internal/rank"
	"github.com/secthall/contribution-backend/internal/roles"
)

const (
	testGroup   = int64(42)
	testChannel = int64(7)
)

func pointsWithTotal(userID, total int64) *fakePoints {
	p := &fakePoints{}
	_ = p.Append(context.Background(), &model.PointTransaction{
		UserID:    userID,
		GroupID:   testGroup,
		Points:    total,
		Reason:    "seed",
		Timestamp: time.Now().UTC(),
	})
	return p
}

func TestReconcilePromotion(t *testing.T) {
	tests := []struct {
		name        string
		heldRoles   []string
		total       int64
		wantAdd     []string
		wantRemove  []string
		wantPromote bool
	}{
		{
			name:        "no rank role to inner",
			heldRoles:   nil,
			total:       300,
			wantAdd:     []string{"100:Inner Disciple"},
			wantPromote: true,
		},
		{
			name:        "outer to inner",
			heldRoles:   []string{"Outer Disciple"},
			total:       300,
			wantAdd:     []string{"100:Inner Disciple"},
			wantRemove:  []string{"100:Outer Disciple"},
			wantPromote: true,
		},
		{
			name:        "demotion stays silent",
			heldRoles:   []string{"Core Disciple"},
			total:       300,
			wantAdd:     []string{"100:Inner Disciple"},
			wantRemove:  []string{"100:Core Disciple"},
			wantPromote: false,
		},
		{
			name:        "stale extra role cleaned without announce",
			heldRoles:   []string{"Inner Disciple", "Outer Disciple"},
			total:       300,
			wantRemove:  []string{"100:Outer Disciple"},
			wantPromote: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider(&roles.Member{ID: 100, Roles: tt.heldRoles})
			announcer := &fakeAnnouncer{}
			svc := NewRankService(pointsWithTotal(100, tt.total), provider, announcer, rank.Default(), testChannel, nil)

			res, err := svc.Reconcile(context.Background(), testGroup, 100)
			if err != nil {
				t.Fatalf("reconcile: %v", err)
			}
			if res.Promoted != tt.wantPromote {
				t.Fatalf("promoted=%v want %v", res.Promoted, tt.wantPromote)
			}
			if len(provider.addCalls) != len(tt.wantAdd) {
				t.Fatalf("addCalls=%v want %v", provider.addCalls, tt.wantAdd)
			}
			for i, want := range tt.wantAdd {
				if provider.addCalls[i] != want {
					t.Fatalf("addCalls=%v want %v", provider.addCalls, tt.wantAdd)
				}
			}
			if len(provider.removeCalls) != len(tt.wantRemove) {
				t.Fatalf("removeCalls=%v want %v", provider.removeCalls, tt.wantRemove)
			}
			wantPosts := 0
			if tt.wantPromote {
				wantPosts = 1
			}
			if len(announcer.posts) != wantPosts {
				t.Fatalf("posts=%d want %d", len(announcer.posts), wantPosts)
			}
			if tt.wantPromote {
				if !strings.Contains(announcer.posts[0], "Inner Disciple") {
					t.Fatalf("announcement missing tier name: %q", announcer.posts[0])
				}
				if !strings.Contains(announcer.posts[0], "300") {
					t.Fatalf("announcement missing total: %q", announcer.posts[0])
				}
			}
		})
	}
}

func TestReconcileIdempotent(t *testing.T) {
	provider := newFakeProvider(&roles.Member{ID: 100, Roles: []string{"Inner Disciple"}})
	announcer := &fakeAnnouncer{}
	svc := NewRankService(pointsWithTotal(100, 150), provider, announcer, rank.Default(), testChannel, nil)

	for i := 0; i < 2; i++ {
		res, err := svc.Reconcile(context.Background(), testGroup, 100)
		if err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
		if res.Changed || res.Promoted || res.Announced {
			t.Fatalf("call %d should be a no-op: %+v", i, res)
		}
	}
	if len(provider.addCalls)+len(provider.removeCalls) != 0 {
		t.Fatalf("expected zero role mutations, got add=%v remove=%v", provider.addCalls, provider.removeCalls)
	}
	if len(announcer.posts) != 0 {
		t.Fatalf("expected no announcements, got %v", announcer.posts)
	}
}

func TestReconcileSkipsBots(t *testing.T) {
	provider := newFakeProvider(&roles.Member{ID: 100, Bot: true})
	svc := NewRankService(pointsWithTotal(100, 300), provider, &fakeAnnouncer{}, rank.Default(), testChannel, nil)

	res, err := svc.Reconcile(context.Background(), testGroup, 100)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !res.Skipped {
		t.Fatalf("expected skip for bot member")
	}
	if len(provider.addCalls) != 0 {
		t.Fatalf("bot member must not be mutated: %v", provider.addCalls)
	}
}

func TestReconcileProviderFailures(t *testing.T) {
	t.Run("member fetch failure is non-fatal", func(t *testing.T) {
		provider := newFakeProvider()
		provider.memberErr = roles.ErrPermissionDenied
		svc := NewRankService(pointsWithTotal(100, 300), provider, &fakeAnnouncer{}, rank.Default(), testChannel, nil)

		res, err := svc.Reconcile(context.Background(), testGroup, 100)
		if err != nil {
			t.Fatalf("provider failure must not error: %v", err)
		}
		if !res.Incomplete {
			t.Fatalf("expected incomplete result")
		}
	})

	t.Run("add role failure reported without announce", func(t *testing.T) {
		provider := newFakeProvider(&roles.Member{ID: 100})
		provider.addErr = roles.ErrPermissionDenied
		announcer := &fakeAnnouncer{}
		svc := NewRankService(pointsWithTotal(100, 300), provider, announcer, rank.Default(), testChannel, nil)

		res, err := svc.Reconcile(context.Background(), testGroup, 100)
		if err != nil {
			t.Fatalf("reconcile: %v", err)
		}
		if !res.Incomplete || res.Promoted || res.Announced {
			t.Fatalf("unexpected result: %+v", res)
		}
		if len(announcer.posts) != 0 {
			t.Fatalf("failed add must not announce: %v", announcer.posts)
		}
	})

	t.Run("storage failure is fatal", func(t *testing.T) {
		points := &fakePoints{totalErr: errors.New("connection refused")}
		svc := NewRankService(points, newFakeProvider(), &fakeAnnouncer{}, rank.Default(), testChannel, nil)

		if _, err := svc.Reconcile(context.Background(), testGroup, 100); err == nil {
			t.Fatalf("expected storage error")
		}
	})
}

func TestReconcileConcurrentSerialized(t *testing.T) {
	provider := newFakeProvider(&roles.Member{ID: 100})
	provider.memberDelay = 10 * time.Millisecond
	announcer := &fakeAnnouncer{}
	svc := NewRankService(pointsWithTotal(100, 300), provider, announcer, rank.Default(), testChannel, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Reconcile(context.Background(), testGroup, 100); err != nil {
				t.Errorf("reconcile: %v", err)
			}
		}()
	}
	wg.Wait()

	// Concurrent reconciliations collapse; any stragglers observe the
	// already-correct role set. Either way the role is added exactly once.
	if len(provider.addCalls) != 1 {
		t.Fatalf("addCalls=%v want exactly one", provider.addCalls)
	}
	if len(announcer.posts) != 1 {
		t.Fatalf("posts=%d want exactly one", len(announcer.posts))
	}
}
