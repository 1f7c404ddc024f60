package permission

import (
	"context"
	"fmt"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type Auditor interface {
	Record(ctx context.Context, e appactivity.Entry)
}

type RoleResponse struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	IsSystem      bool               `json:"is_system"`
	IsTenantAdmin bool               `json:"is_tenant_admin"`
	Grants        []permission.Grant `json:"grants"`
}

func toRoleResponse(r *permission.Role) *RoleResponse {
	grants := r.Grants()
	if grants == nil {
		grants = []permission.Grant{}
	}
	return &RoleResponse{
		ID:            r.SID(),
		Name:          r.Name(),
		Slug:          r.Slug(),
		IsSystem:      r.IsSystem(),
		IsTenantAdmin: r.IsTenantAdmin(),
		Grants:        grants,
	}
}

type UpdateGrantsRequest struct {
	Grants []permission.Grant `json:"grants" binding:"required,dive"`
}

// Service manages a tenant's roles. Grant changes take effect on the next
// request because the evaluator reads grants fresh every time.
type Service struct {
	roleRepo permission.RoleRepository
	auditor  Auditor
	logger   logger.Interface
}

func NewService(roleRepo permission.RoleRepository, auditor Auditor, logger logger.Interface) *Service {
	return &Service{roleRepo: roleRepo, auditor: auditor, logger: logger}
}

func (s *Service) ListRoles(ctx context.Context, tenantID uint) ([]*RoleResponse, error) {
	roles, err := s.roleRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		s.logger.Errorw("failed to list roles", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	out := make([]*RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r))
	}
	return out, nil
}

func grantImage(grants []permission.Grant) map[string]any {
	img := make(map[string]any, len(grants))
	for _, g := range grants {
		actions := make([]string, 0, len(g.Actions))
		for _, a := range g.Actions {
			actions = append(actions, a.String())
		}
		img[g.Resource] = actions
	}
	return img
}

// UpdateGrants replaces the grant set of the role identified by slug.
// Tenant-admin roles bypass grants and cannot be edited.
func (s *Service) UpdateGrants(ctx context.Context, actor *tenancy.Principal, tenantID uint, slug string, req UpdateGrantsRequest) (*RoleResponse, error) {
	role, err := s.roleRepo.GetBySlug(ctx, tenantID, slug)
	if err != nil {
		s.logger.Errorw("failed to get role", "tenant_id", tenantID, "role", slug, "error", err)
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return nil, errors.NewNotFoundError(permission.ErrRoleNotFound.Error(), slug)
	}
	if role.IsTenantAdmin() {
		return nil, errors.NewValidationError("the administrator role always has every permission")
	}

	holders, err := s.roleRepo.CountHolders(ctx, tenantID, role.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to count role holders: %w", err)
	}
	before := grantImage(role.Grants())
	if err := role.ReplaceGrants(req.Grants, holders); err != nil {
		if err == permission.ErrSystemRoleInUse {
			return nil, errors.NewConflictError(err.Error())
		}
		return nil, errors.NewValidationError(err.Error())
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		s.logger.Errorw("failed to update role", "tenant_id", tenantID, "role_id", role.ID(), "error", err)
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	e := appactivity.Entry{
		TenantID: tenantID,
		Kind:     activity.KindRoleUpdated,
		Entity:   activity.EntityRef{Type: "role", ID: role.SID(), Name: role.Name()},
		Metadata: activity.NewMetadata(before, grantImage(role.Grants())),
	}
	if actor != nil {
		e.ActorID = actor.UserID
		e.ActorName = actor.Name
	}
	s.auditor.Record(ctx, e)

	return toRoleResponse(role), nil
}
