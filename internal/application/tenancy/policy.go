package tenancy

import (
	"context"

	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/errors"
)

// Demand is the consumption an action would add if admitted.
type Demand struct {
	Resource tenant.Resource
	Amount   int64
}

// Action describes what a request wants to do.
type Action struct {
	Resource string
	Verb     permission.Action
	// Mutating is false for pure reads.
	Mutating bool
	// Billing actions stay available on lapsed trials.
	Billing bool
	// Unsuspend marks operator actions that bring a tenant back into
	// service: lifting a suspension or restoring a cancelled tenant.
	Unsuspend bool
	Feature   string
	Quota     *Demand
}

func ReadAction(resource string) Action {
	return Action{Resource: resource, Verb: permission.ActionRead}
}

func WriteAction(resource string, verb permission.Action) Action {
	return Action{Resource: resource, Verb: verb, Mutating: true}
}

// WithFeature returns a copy of a requiring feature.
func (a Action) WithFeature(feature string) Action {
	a.Feature = feature
	return a
}

// WithQuota returns a copy of a demanding amount of r.
func (a Action) WithQuota(r tenant.Resource, amount int64) Action {
	a.Quota = &Demand{Resource: r, Amount: amount}
	return a
}

// Request is the input every policy evaluates.
type Request struct {
	Actor  *Principal
	Tenant *tenant.Tenant
	Action Action
}

// Decision is a policy outcome. A denial always carries its reason.
type Decision struct {
	Allowed bool
	Reason  error
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason error) Decision {
	return Decision{Reason: reason}
}

// Policy is one gate in the pipeline.
type Policy interface {
	Evaluate(ctx context.Context, req Request) Decision
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, req Request) Decision

func (f PolicyFunc) Evaluate(ctx context.Context, req Request) Decision {
	return f(ctx, req)
}

// Chain evaluates policies in order and stops at the first denial. A request
// without a tenant is denied before any policy runs.
type Chain []Policy

func (c Chain) Evaluate(ctx context.Context, req Request) Decision {
	if req.Tenant == nil {
		return Deny(errors.NewTenantRequiredError())
	}
	for _, p := range c {
		d := p.Evaluate(ctx, req)
		if !d.Allowed {
			if d.Reason == nil {
				d.Reason = errors.NewPermissionDeniedError(req.Action.Resource, string(req.Action.Verb))
			}
			return d
		}
	}
	return Allow()
}
