package usecases

import (
	"context"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/quota"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/tenant"
)

// Auditor records activity entries; it never fails the caller.
type Auditor interface {
	Record(ctx context.Context, e appactivity.Entry)
}

// TenantCacheInvalidator drops cached resolutions of a tenant.
type TenantCacheInvalidator interface {
	Invalidate(ctx context.Context, t *tenant.Tenant, previousDomains ...string)
}

type QuotaAdmitter interface {
	Admit(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) (*quota.Reservation, error)
}

type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UsageReconciler interface {
	Recalculate(ctx context.Context, tenantID uint) (*tenant.Usage, error)
}

func tenantRef(t *tenant.Tenant) activity.EntityRef {
	return activity.EntityRef{Type: "tenant", ID: t.SID(), Name: t.Name()}
}

// entryFor builds an audit entry for an action by actor on t.
func entryFor(actor *tenancy.Principal, t *tenant.Tenant, kind activity.Kind, entity activity.EntityRef) appactivity.Entry {
	e := appactivity.Entry{TenantID: t.ID(), Kind: kind, Entity: entity}
	if actor != nil {
		e.ActorID = actor.UserID
		e.ActorName = actor.Name
	}
	return e
}

// loadTenant fetches a live tenant by SID for operator actions.
func loadTenant(ctx context.Context, repo tenant.Repository, sid string) (*tenant.Tenant, error) {
	t, err := repo.GetBySID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsActive() {
		return nil, nil
	}
	return t, nil
}
