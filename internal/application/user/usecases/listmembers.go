package usecases

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type ListMembersUseCase struct {
	userRepo user.Repository
	roleRepo permission.RoleRepository
	logger   logger.Interface
}

func NewListMembersUseCase(userRepo user.Repository, roleRepo permission.RoleRepository, logger logger.Interface) *ListMembersUseCase {
	return &ListMembersUseCase{userRepo: userRepo, roleRepo: roleRepo, logger: logger}
}

func (uc *ListMembersUseCase) Execute(ctx context.Context, tenantID uint) ([]*dto.MemberResponse, error) {
	members, err := uc.userRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		uc.logger.Errorw("failed to list members", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	roles, err := uc.roleRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	slugs := make(map[uint]string, len(roles))
	for _, r := range roles {
		slugs[r.ID()] = r.Slug()
	}

	out := make([]*dto.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, dto.ToMemberResponse(m, slugs))
	}
	return out, nil
}
