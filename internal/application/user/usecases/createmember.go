package usecases

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/id"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// CreateMemberUseCase adds a member to a tenant. The seat is admitted and
// the member inserted in one transaction, so a failed insert never leaks a
// seat and concurrent invites cannot overshoot the plan limit.
type CreateMemberUseCase struct {
	userRepo user.Repository
	roleRepo permission.RoleRepository
	hasher   user.PasswordHasher
	quota    MemberQuota
	auditor  Auditor
	logger   logger.Interface
}

func NewCreateMemberUseCase(
	userRepo user.Repository,
	roleRepo permission.RoleRepository,
	hasher user.PasswordHasher,
	quota MemberQuota,
	auditor Auditor,
	logger logger.Interface,
) *CreateMemberUseCase {
	return &CreateMemberUseCase{
		userRepo: userRepo,
		roleRepo: roleRepo,
		hasher:   hasher,
		quota:    quota,
		auditor:  auditor,
		logger:   logger,
	}
}

func (uc *CreateMemberUseCase) Execute(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant, req dto.CreateMemberRequest) (*dto.MemberResponse, error) {
	roleSlug := req.Role
	if roleSlug == "" {
		roleSlug = permission.RoleSlugMember
	}
	role, err := uc.roleRepo.GetBySlug(ctx, t.ID(), roleSlug)
	if err != nil {
		uc.logger.Errorw("failed to get role", "tenant_id", t.ID(), "role", roleSlug, "error", err)
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return nil, errors.NewValidationError(permission.ErrRoleNotFound.Error(), roleSlug)
	}

	taken, err := uc.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, errors.NewConflictError(user.ErrEmailTaken.Error())
	}

	hash, err := uc.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	sid, err := id.NewUserID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}
	member, err := user.NewMember(sid, t.ID(), role.ID(), req.Email, req.Name, hash)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	err = uc.quota.Within(ctx, t, tenant.ResourceUsers, 1, func(txCtx context.Context) error {
		return uc.userRepo.Create(txCtx, member)
	})
	if err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError(user.ErrEmailTaken.Error())
		}
		if errors.IsAppError(err) {
			return nil, err
		}
		uc.logger.Errorw("failed to create member", "tenant_id", t.ID(), "error", err)
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	uc.auditor.Record(ctx, entryFor(actor, t.ID(), activity.KindUserCreated, memberRef(member)))
	uc.logger.Infow("member created", "tenant_id", t.ID(), "user_id", member.ID(), "role", role.Slug())

	return dto.ToMemberResponse(member, map[uint]string{role.ID(): role.Slug()}), nil
}
