package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// UsageUseCase reports a tenant's consumption against its plan limits.
type UsageUseCase struct {
	usageRepo  tenant.UsageRepository
	reconciler UsageReconciler
	auditor    Auditor
	now        func() time.Time
	logger     logger.Interface
}

func NewUsageUseCase(
	usageRepo tenant.UsageRepository,
	reconciler UsageReconciler,
	auditor Auditor,
	logger logger.Interface,
) *UsageUseCase {
	return &UsageUseCase{
		usageRepo:  usageRepo,
		reconciler: reconciler,
		auditor:    auditor,
		now:        biztime.NowUTC,
		logger:     logger,
	}
}

func (uc *UsageUseCase) Get(ctx context.Context, t *tenant.Tenant) (*dto.UsageResponse, error) {
	u, err := uc.usageRepo.Get(ctx, t.ID())
	if err != nil {
		uc.logger.Errorw("failed to get usage", "tenant_id", t.ID(), "error", err)
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	if u == nil {
		u = &tenant.Usage{}
	}
	return dto.ToUsageResponse(t, *u, uc.now()), nil
}

// Recalculate recounts usage from the source tables and overwrites the counters.
func (uc *UsageUseCase) Recalculate(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant) (*dto.UsageResponse, error) {
	before, err := uc.usageRepo.Get(ctx, t.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	if before == nil {
		before = &tenant.Usage{}
	}

	u, err := uc.reconciler.Recalculate(ctx, t.ID())
	if err != nil {
		uc.logger.Errorw("failed to recalculate usage", "tenant_id", t.ID(), "error", err)
		return nil, fmt.Errorf("failed to recalculate usage: %w", err)
	}

	now := uc.now()
	period := biztime.PeriodKey(now)
	e := entryFor(actor, t, activity.KindUsageRecalculated, tenantRef(t))
	e.Metadata = activity.NewMetadata(usageImage(*before, period), usageImage(*u, period))
	uc.auditor.Record(ctx, e)

	return dto.ToUsageResponse(t, *u, now), nil
}

func usageImage(u tenant.Usage, period int) map[string]any {
	return map[string]any{
		"users":   u.Current(tenant.ResourceUsers, period),
		"records": u.Current(tenant.ResourceRecords, period),
		"storage": u.Current(tenant.ResourceStorage, period),
	}
}
