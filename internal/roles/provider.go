package roles

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied = errors.New("permission_denied")
	ErrNotFound         = errors.New("not_found")
)

// Member is the chat platform's view of a group member: the roles it
// currently holds and whether it is a bot/service account. Rank roles
// are identified by name only at this boundary.
type Member struct {
	ID    int64    `json:"id"`
	Bot   bool     `json:"bot"`
	Roles []string `json:"roles"`
}

// Provider mutates externally held role assignments. Calls are bounded
// best-effort operations; implementations report permission and
// missing-entity failures as ErrPermissionDenied / ErrNotFound and
// never retry on their own.
type Provider interface {
	Member(ctx context.Context, groupID, memberID int64) (*Member, error)
	AddRole(ctx context.Context, groupID, memberID int64, role string) error
	RemoveRole(ctx context.Context, groupID, memberID int64, role string) error
}

// Announcer posts messages to a channel. Best-effort: callers log
// failures and move on.
type Announcer interface {
	Post(ctx context.Context, channelID int64, message string) error
}
