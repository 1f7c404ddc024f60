package tenancy

import (
	"context"

	"github.com/spendwise/spendwise/internal/domain/tenant"
)

// QuotaChecker is the read-only preflight of the quota enforcer.
type QuotaChecker interface {
	Check(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) error
}

// QuotaPolicy rejects requests whose demand would exceed the plan limit.
// Admission itself happens next to the write; this only fails fast.
type QuotaPolicy struct {
	checker QuotaChecker
}

func NewQuotaPolicy(checker QuotaChecker) *QuotaPolicy {
	return &QuotaPolicy{checker: checker}
}

func (p *QuotaPolicy) Evaluate(ctx context.Context, req Request) Decision {
	d := req.Action.Quota
	if d == nil {
		return Allow()
	}
	if err := p.checker.Check(ctx, req.Tenant, d.Resource, d.Amount); err != nil {
		return Deny(err)
	}
	return Allow()
}
