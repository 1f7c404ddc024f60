package usecases

import (
	"context"
	"time"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
)

type Auditor interface {
	Record(ctx context.Context, e appactivity.Entry)
}

type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemberQuota admits and returns seats on a tenant's users limit.
type MemberQuota interface {
	Within(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64, fn func(ctx context.Context) error) error
	Release(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) error
}

type SessionIssuer interface {
	IssueSession(userSID, tenantSID, role string, operator bool) (token string, expiresAt time.Time, err error)
}

// TenantLookup resolves the tenant a member signs into.
type TenantLookup interface {
	ResolveByID(ctx context.Context, id uint) (*tenant.Tenant, error)
}

func memberRef(u *user.User) activity.EntityRef {
	return activity.EntityRef{Type: "user", ID: u.SID(), Name: u.Name()}
}

func entryFor(actor *tenancy.Principal, tenantID uint, kind activity.Kind, entity activity.EntityRef) appactivity.Entry {
	e := appactivity.Entry{TenantID: tenantID, Kind: kind, Entity: entity}
	if actor != nil {
		e.ActorID = actor.UserID
		e.ActorName = actor.Name
	}
	return e
}
