package tenant

import (
	"context"
	"time"
)

// Deletion is the platform-scope record left behind by a hard delete. It is
// written in the same transaction as the cascade and outlives the tenant.
type Deletion struct {
	TenantSID     string
	Slug          string
	Name          string
	PlanSlug      string
	DeletedBy     uint
	DeletedByName string
	Reason        string
	DeletedAt     time.Time
}

type DeletionRepository interface {
	Create(ctx context.Context, d *Deletion) error
	List(ctx context.Context, limit int) ([]*Deletion, error)
}
