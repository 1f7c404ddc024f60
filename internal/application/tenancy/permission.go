package tenancy

import (
	"context"

	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// OperatorACL answers permission questions for platform operators.
type OperatorACL interface {
	Allowed(operatorRole, resource, action string) (bool, error)
}

// PermissionPolicy checks the actor against the resolved tenant and the
// actor's role grants. Grants are read from the repository on every
// evaluation so role edits apply to the very next request.
type PermissionPolicy struct {
	roles permission.RoleRepository
	acl   OperatorACL
	log   logger.Interface
}

func NewPermissionPolicy(roles permission.RoleRepository, acl OperatorACL, log logger.Interface) *PermissionPolicy {
	return &PermissionPolicy{roles: roles, acl: acl, log: log}
}

func (p *PermissionPolicy) Evaluate(ctx context.Context, req Request) Decision {
	actor := req.Actor
	if actor == nil {
		return Deny(errors.NewAuthRequiredError())
	}
	action := req.Action
	if action.Resource == "" || action.Verb == "" {
		return Deny(errors.NewPermissionDeniedError(action.Resource, string(action.Verb)))
	}

	if actor.Operator {
		if p.acl == nil {
			return Deny(errors.NewPermissionDeniedError(action.Resource, string(action.Verb)))
		}
		ok, err := p.acl.Allowed(actor.OperatorRole, action.Resource, string(action.Verb))
		if err != nil {
			p.log.Errorw("operator ACL check failed", "user_sid", actor.UserSID, "error", err)
			return Deny(errors.NewInternalError("permission check failed"))
		}
		if !ok {
			return Deny(errors.NewPermissionDeniedError(action.Resource, string(action.Verb)))
		}
		return Allow()
	}

	if actor.TenantID == 0 || actor.TenantID != req.Tenant.ID() {
		p.log.Warnw("security event: actor tenant does not match resolved tenant",
			"user_sid", actor.UserSID,
			"actor_tenant_id", actor.TenantID,
			"resolved_tenant_id", req.Tenant.ID(),
		)
		return Deny(errors.NewTenantAccessDeniedError())
	}

	if actor.RoleID == 0 {
		return Deny(errors.NewPermissionDeniedError(action.Resource, string(action.Verb)))
	}
	role, err := p.roles.GetByID(ctx, req.Tenant.ID(), actor.RoleID)
	if err != nil {
		p.log.Errorw("failed to load role", "role_id", actor.RoleID, "tenant_id", req.Tenant.ID(), "error", err)
		return Deny(errors.NewInternalError("permission check failed"))
	}
	if role == nil || !role.Can(action.Resource, action.Verb) {
		return Deny(errors.NewPermissionDeniedError(action.Resource, string(action.Verb)))
	}
	return Allow()
}

// IsTenantAdmin reports whether actor holds the tenant-admin role in its tenant.
func IsTenantAdmin(ctx context.Context, roles permission.RoleRepository, actor *Principal) (bool, error) {
	if actor == nil || actor.Operator || actor.TenantID == 0 || actor.RoleID == 0 {
		return false, nil
	}
	role, err := roles.GetByID(ctx, actor.TenantID, actor.RoleID)
	if err != nil || role == nil {
		return false, err
	}
	return role.IsTenantAdmin(), nil
}
