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
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// StatusAction is an operator-driven lifecycle transition.
type StatusAction string

const (
	StatusActionSuspend   StatusAction = "suspend"
	StatusActionUnsuspend StatusAction = "unsuspend"
	StatusActionCancel    StatusAction = "cancel"
	StatusActionActivate  StatusAction = "activate"
)

func (a StatusAction) apply(t *tenant.Tenant, now time.Time) (activity.Kind, error) {
	switch a {
	case StatusActionSuspend:
		return activity.KindTenantSuspended, t.Suspend(now)
	case StatusActionUnsuspend:
		return activity.KindTenantUnsuspended, t.Reactivate(now)
	case StatusActionCancel:
		return activity.KindTenantCancelled, t.Cancel(now)
	case StatusActionActivate:
		return activity.KindTenantActivated, t.Activate(now)
	default:
		return activity.Kind{}, fmt.Errorf("unknown status action %q", a)
	}
}

type ChangeTenantStatusUseCase struct {
	tenantRepo tenant.Repository
	cache      TenantCacheInvalidator
	auditor    Auditor
	now        func() time.Time
	logger     logger.Interface
}

func NewChangeTenantStatusUseCase(
	tenantRepo tenant.Repository,
	cache TenantCacheInvalidator,
	auditor Auditor,
	logger logger.Interface,
) *ChangeTenantStatusUseCase {
	return &ChangeTenantStatusUseCase{
		tenantRepo: tenantRepo,
		cache:      cache,
		auditor:    auditor,
		now:        biztime.NowUTC,
		logger:     logger,
	}
}

func (uc *ChangeTenantStatusUseCase) Execute(ctx context.Context, actor *tenancy.Principal, tenantSID string, action StatusAction) (*dto.TenantResponse, error) {
	t, err := loadTenant(ctx, uc.tenantRepo, tenantSID)
	if err != nil {
		uc.logger.Errorw("failed to get tenant", "tenant_sid", tenantSID, "error", err)
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if t == nil {
		return nil, errors.NewNotFoundError(tenant.ErrTenantNotFound.Error(), tenantSID)
	}

	before := t.Status()
	kind, err := action.apply(t, uc.now())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.tenantRepo.Update(ctx, t); err != nil {
		uc.logger.Errorw("failed to update tenant status", "tenant_id", t.ID(), "action", action, "error", err)
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	uc.cache.Invalidate(ctx, t)

	e := entryFor(actor, t, kind, tenantRef(t))
	e.Metadata = activity.NewMetadata(
		map[string]any{"status": string(before)},
		map[string]any{"status": string(t.Status())},
	)
	uc.auditor.Record(ctx, e)

	uc.logger.Infow("tenant status changed", "tenant_id", t.ID(), "from", before, "to", t.Status())
	return dto.ToTenantResponse(t), nil
}

type ExtendTrialUseCase struct {
	tenantRepo tenant.Repository
	cache      TenantCacheInvalidator
	auditor    Auditor
	now        func() time.Time
	logger     logger.Interface
}

func NewExtendTrialUseCase(
	tenantRepo tenant.Repository,
	cache TenantCacheInvalidator,
	auditor Auditor,
	logger logger.Interface,
) *ExtendTrialUseCase {
	return &ExtendTrialUseCase{
		tenantRepo: tenantRepo,
		cache:      cache,
		auditor:    auditor,
		now:        biztime.NowUTC,
		logger:     logger,
	}
}

func (uc *ExtendTrialUseCase) Execute(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.ExtendTrialRequest) (*dto.TenantResponse, error) {
	t, err := loadTenant(ctx, uc.tenantRepo, tenantSID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if t == nil {
		return nil, errors.NewNotFoundError(tenant.ErrTenantNotFound.Error(), tenantSID)
	}

	var before any
	if end := t.TrialEndDate(); end != nil {
		before = end.Format(time.RFC3339)
	}
	if err := t.ExtendTrial(req.Days, uc.now()); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := uc.tenantRepo.Update(ctx, t); err != nil {
		uc.logger.Errorw("failed to extend trial", "tenant_id", t.ID(), "error", err)
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	uc.cache.Invalidate(ctx, t)

	e := entryFor(actor, t, activity.KindTrialExtended, tenantRef(t))
	e.Metadata = activity.NewMetadata(
		map[string]any{"trial_end_date": before},
		map[string]any{"trial_end_date": t.TrialEndDate().Format(time.RFC3339), "days": req.Days},
	)
	uc.auditor.Record(ctx, e)

	return dto.ToTenantResponse(t), nil
}
