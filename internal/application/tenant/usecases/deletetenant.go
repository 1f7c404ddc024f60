package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// DeleteTenantUseCase permanently removes a tenant and all of its data.
// The tenant's own activity log goes with it, so the deletion is recorded
// in the platform-level deletion log instead.
type DeleteTenantUseCase struct {
	tenantRepo   tenant.Repository
	deletionRepo tenant.DeletionRepository
	tx           TxRunner
	cache        TenantCacheInvalidator
	now          func() time.Time
	logger       logger.Interface
}

func NewDeleteTenantUseCase(
	tenantRepo tenant.Repository,
	deletionRepo tenant.DeletionRepository,
	tx TxRunner,
	cache TenantCacheInvalidator,
	logger logger.Interface,
) *DeleteTenantUseCase {
	return &DeleteTenantUseCase{
		tenantRepo:   tenantRepo,
		deletionRepo: deletionRepo,
		tx:           tx,
		cache:        cache,
		now:          biztime.NowUTC,
		logger:       logger,
	}
}

func (uc *DeleteTenantUseCase) Execute(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.DeleteTenantRequest) error {
	t, err := uc.tenantRepo.GetBySID(ctx, tenantSID)
	if err != nil {
		uc.logger.Errorw("failed to get tenant", "tenant_sid", tenantSID, "error", err)
		return fmt.Errorf("failed to get tenant: %w", err)
	}
	if t == nil {
		return errors.NewNotFoundError(tenant.ErrTenantNotFound.Error(), tenantSID)
	}
	if req.ConfirmSlug != t.Slug() {
		return errors.NewValidationError("confirmation does not match the organization slug")
	}

	record := &tenant.Deletion{
		TenantSID: t.SID(),
		Slug:      t.Slug(),
		Name:      t.Name(),
		PlanSlug:  t.PlanSlug(),
		Reason:    req.Reason,
		DeletedAt: uc.now(),
	}
	if actor != nil {
		record.DeletedBy = actor.UserID
		record.DeletedByName = actor.Name
	}

	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.deletionRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("failed to record deletion: %w", err)
		}
		return uc.tenantRepo.HardDelete(txCtx, t.ID())
	})
	if err != nil {
		uc.logger.Errorw("failed to delete tenant", "tenant_id", t.ID(), "error", err)
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	uc.cache.Invalidate(ctx, t)

	uc.logger.Warnw("tenant permanently deleted",
		"tenant_id", t.ID(),
		"slug", t.Slug(),
		"deleted_by", record.DeletedBy,
		"reason", req.Reason,
	)
	return nil
}
