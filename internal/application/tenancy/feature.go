package tenancy

import (
	"context"

	"github.com/spendwise/spendwise/internal/shared/errors"
)

// FeatureGate asserts that the tenant's plan includes the action's feature.
type FeatureGate struct {
	upgradeURL string
}

func NewFeatureGate(upgradeURL string) *FeatureGate {
	return &FeatureGate{upgradeURL: upgradeURL}
}

func (g *FeatureGate) Evaluate(_ context.Context, req Request) Decision {
	feature := req.Action.Feature
	if feature == "" || req.Tenant.Settings().HasFeature(feature) {
		return Allow()
	}
	return Deny(errors.NewFeatureNotAvailableError(feature, req.Tenant.PlanSlug(), g.upgradeURL))
}
