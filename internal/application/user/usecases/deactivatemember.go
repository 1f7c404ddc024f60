package usecases

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// DeactivateMemberUseCase disables a member and returns their seat.
type DeactivateMemberUseCase struct {
	userRepo user.Repository
	quota    MemberQuota
	tx       TxRunner
	auditor  Auditor
	logger   logger.Interface
}

func NewDeactivateMemberUseCase(
	userRepo user.Repository,
	quota MemberQuota,
	tx TxRunner,
	auditor Auditor,
	logger logger.Interface,
) *DeactivateMemberUseCase {
	return &DeactivateMemberUseCase{
		userRepo: userRepo,
		quota:    quota,
		tx:       tx,
		auditor:  auditor,
		logger:   logger,
	}
}

func (uc *DeactivateMemberUseCase) Execute(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant, memberSID string) error {
	member, err := uc.userRepo.GetMemberBySID(ctx, t.ID(), memberSID)
	if err != nil {
		uc.logger.Errorw("failed to get member", "tenant_id", t.ID(), "member_sid", memberSID, "error", err)
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return errors.NewNotFoundError(user.ErrUserNotFound.Error(), memberSID)
	}
	if actor != nil && actor.UserID == member.ID() {
		return errors.NewValidationError("members cannot deactivate themselves")
	}
	if err := member.Deactivate(); err != nil {
		return errors.NewConflictError(err.Error())
	}

	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.userRepo.Update(txCtx, member); err != nil {
			return err
		}
		return uc.quota.Release(txCtx, t, tenant.ResourceUsers, 1)
	})
	if err != nil {
		uc.logger.Errorw("failed to deactivate member", "tenant_id", t.ID(), "user_id", member.ID(), "error", err)
		return fmt.Errorf("failed to deactivate member: %w", err)
	}

	uc.auditor.Record(ctx, entryFor(actor, t.ID(), activity.KindUserDeactivated, memberRef(member)))
	return nil
}
