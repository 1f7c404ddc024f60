package tenant

import "context"

// ListFilter selects tenants for operator listings.
type ListFilter struct {
	Status   Status
	PlanSlug string
	Page     int
	PageSize int
}

// Repository persists tenants. Lookups used for request resolution
// (GetBySlug, GetByVerifiedDomain) only ever return live tenants.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uint) (*Tenant, error)
	GetBySID(ctx context.Context, sid string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetByVerifiedDomain(ctx context.Context, host string) (*Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	DomainInUse(ctx context.Context, domain string, excludeID uint) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]*Tenant, int64, error)
	ListIDs(ctx context.Context) ([]uint, error)
	// ApplyPlanSettings rewrites the settings of every tenant on planSlug
	// and returns the IDs it touched.
	ApplyPlanSettings(ctx context.Context, planSlug string, settings Settings) ([]uint, error)
	// HardDelete removes the tenant and every tenant-scoped row.
	HardDelete(ctx context.Context, id uint) error
}

// UsageRepository holds the per-tenant consumption counters. Every method
// runs in the transaction carried by ctx, if any.
type UsageRepository interface {
	// Init creates the zeroed counter row; it is a no-op when one exists.
	Init(ctx context.Context, tenantID uint, period int) error
	Get(ctx context.Context, tenantID uint) (*Usage, error)
	// TryIncrement adds amount to r in one conditional update and reports
	// whether the result stayed within limit. A records counter from an
	// earlier period restarts at zero. A tenant without a counter row
	// reports false, like a full one.
	TryIncrement(ctx context.Context, tenantID uint, r Resource, amount, limit int64, period int) (bool, error)
	// Decrement subtracts amount from r, never going below zero.
	Decrement(ctx context.Context, tenantID uint, r Resource, amount int64, period int) error
	// Overwrite replaces all counters with u, as produced by a recount.
	Overwrite(ctx context.Context, tenantID uint, u Usage) error
}
