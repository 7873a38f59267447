package syncctx

import "context"

type ctxKey string

const (
	keyRID    ctxKey = "sync_rid"
	keyMember ctxKey = "sync_member_id"
)

// WithRID stores the correlation id for reconciliation logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithMemberID stores the member being reconciled for log lines.
func WithMemberID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, keyMember, id)
}

// MemberID returns the member id if present.
func MemberID(ctx context.Context) int64 {
	v, _ := ctx.Value(keyMember).(int64)
	return v
}
