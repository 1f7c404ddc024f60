package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// ChangeTenantPlanUseCase moves a tenant to another plan. Existing usage
// above the new limits is kept; only new admissions are refused.
type ChangeTenantPlanUseCase struct {
	tenantRepo tenant.Repository
	planRepo   subscription.PlanRepository
	cache      TenantCacheInvalidator
	auditor    Auditor
	now        func() time.Time
	logger     logger.Interface
}

func NewChangeTenantPlanUseCase(
	tenantRepo tenant.Repository,
	planRepo subscription.PlanRepository,
	cache TenantCacheInvalidator,
	auditor Auditor,
	logger logger.Interface,
) *ChangeTenantPlanUseCase {
	return &ChangeTenantPlanUseCase{
		tenantRepo: tenantRepo,
		planRepo:   planRepo,
		cache:      cache,
		auditor:    auditor,
		now:        biztime.NowUTC,
		logger:     logger,
	}
}

func settingsImage(planSlug string, s tenant.Settings) map[string]any {
	return map[string]any{
		"plan":              planSlug,
		"max_users":         s.MaxUsers,
		"max_records":       s.MaxRecords,
		"max_storage_bytes": s.MaxStorageBytes,
		"features":          s.Features,
	}
}

func (uc *ChangeTenantPlanUseCase) Execute(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.ChangePlanRequest) (*dto.TenantResponse, error) {
	t, err := loadTenant(ctx, uc.tenantRepo, tenantSID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if t == nil {
		return nil, errors.NewNotFoundError(tenant.ErrTenantNotFound.Error(), tenantSID)
	}

	plan, err := uc.planRepo.GetBySlug(ctx, req.Plan)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "plan", req.Plan, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError(subscription.ErrPlanNotFound.Error(), req.Plan)
	}
	if !plan.IsActive() {
		return nil, errors.NewValidationError(subscription.ErrPlanInactive.Error(), req.Plan)
	}

	before := settingsImage(t.PlanSlug(), t.Settings())
	t.ChangePlan(plan.Slug(), plan.Settings(), uc.now())

	if err := uc.tenantRepo.Update(ctx, t); err != nil {
		uc.logger.Errorw("failed to change tenant plan", "tenant_id", t.ID(), "plan", plan.Slug(), "error", err)
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	uc.cache.Invalidate(ctx, t)

	e := entryFor(actor, t, activity.KindPlanChanged, tenantRef(t))
	e.Metadata = activity.NewMetadata(before, settingsImage(t.PlanSlug(), t.Settings()))
	uc.auditor.Record(ctx, e)

	uc.logger.Infow("tenant plan changed", "tenant_id", t.ID(), "from", before["plan"], "to", plan.Slug())
	return dto.ToTenantResponse(t), nil
}
