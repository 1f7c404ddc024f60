package tenancy

import (
	"context"
	"time"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/errors"
)

// StateGate applies the tenant lifecycle policy. It only reads state.
//
//   - active, trial within its end date: allowed
//   - trial past its end date: writes other than billing rejected with TRIAL_EXPIRED
//   - suspended: everything rejected except operator reads and the unsuspend action
//   - cancelled: TENANT_NOT_FOUND, except operator reads and the restore action
type StateGate struct {
	upgradeURL string
	now        func() time.Time
}

func NewStateGate(upgradeURL string) *StateGate {
	return &StateGate{upgradeURL: upgradeURL, now: biztime.NowUTC}
}

func (g *StateGate) Evaluate(_ context.Context, req Request) Decision {
	t := req.Tenant
	operator := req.Actor != nil && req.Actor.Operator
	action := req.Action

	switch t.Status() {
	case tenant.StatusCancelled:
		if operator && (action.Unsuspend || !action.Mutating) {
			return Allow()
		}
		return Deny(errors.NewTenantNotFoundError())

	case tenant.StatusSuspended:
		if operator && (action.Unsuspend || !action.Mutating) {
			return Allow()
		}
		return Deny(errors.NewTenantSuspendedError())

	case tenant.StatusTrial:
		now := g.now()
		if t.IsTrialExpired(now) && action.Mutating && !action.Billing && !operator {
			days := biztime.DaysBetween(*t.TrialEndDate(), now)
			return Deny(errors.NewTrialExpiredError(days, g.upgradeURL))
		}
		return Allow()

	case tenant.StatusActive:
		return Allow()
	}

	return Deny(errors.NewTenantNotFoundError())
}
