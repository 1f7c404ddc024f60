package tenancy

import (
	"context"

	"github.com/spendwise/spendwise/internal/shared/metrics"
)

// Guard runs the standard pipeline: lifecycle, permission, quota, feature.
type Guard struct {
	chain Chain
}

func NewGuard(state *StateGate, perm *PermissionPolicy, quota *QuotaPolicy, feature *FeatureGate) *Guard {
	return &Guard{chain: Chain{state, perm, quota, feature}}
}

// NewGuardWithPolicies builds a guard from an arbitrary chain.
func NewGuardWithPolicies(policies ...Policy) *Guard {
	return &Guard{chain: Chain(policies)}
}

// Authorize returns nil when every gate allows req, otherwise the first
// gate's structured rejection.
func (g *Guard) Authorize(ctx context.Context, req Request) error {
	d := g.chain.Evaluate(ctx, req)
	if d.Allowed {
		return nil
	}
	metrics.RecordGateRejection(d.Reason)
	return d.Reason
}
