package activity

import (
	"context"
	"time"
)

// Repository stores activity records. Every read and write is scoped to a
// tenant and to the visibilities the caller may see.
type Repository interface {
	// Create inserts a record and reports false when a record with the same
	// tenant and idempotency key already exists.
	Create(ctx context.Context, a *Activity) (bool, error)
	ListRecent(ctx context.Context, tenantID uint, scopes []Visibility, limit int) ([]*Activity, error)
	// CountUnread excludes records performed by excludeUserID.
	CountUnread(ctx context.Context, tenantID uint, scopes []Visibility, excludeUserID uint) (int64, error)
	// MarkAsRead flips the read flag on the visible records in ids, or on
	// every visible record when ids is empty.
	MarkAsRead(ctx context.Context, tenantID uint, scopes []Visibility, sids []string) (int64, error)
	// DeleteOlderThan purges non-critical records created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
