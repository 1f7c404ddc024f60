package tenancy

import (
	"context"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
)

// Principal is the authenticated actor of a request, rebuilt from the user
// record on every request.
type Principal struct {
	UserID       uint
	UserSID      string
	Name         string
	TenantID     uint
	RoleID       uint
	Operator     bool
	OperatorRole string
}

// NewPrincipal builds a principal from an active user.
func NewPrincipal(u *user.User) *Principal {
	p := &Principal{
		UserID:       u.ID(),
		UserSID:      u.SID(),
		Name:         u.Name(),
		Operator:     u.IsOperator(),
		OperatorRole: u.OperatorRole(),
	}
	if tid := u.TenantID(); tid != nil {
		p.TenantID = *tid
	}
	if rid := u.RoleID(); rid != nil {
		p.RoleID = *rid
	}
	return p
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal bound to ctx, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

type tenantKey struct{}

func WithTenant(ctx context.Context, t *tenant.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// TenantFrom returns the tenant resolved for ctx, or nil when none was.
func TenantFrom(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(tenantKey{}).(*tenant.Tenant)
	return t
}
