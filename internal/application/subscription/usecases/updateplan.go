package usecases

import (
	"context"
	"fmt"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/subscription/dto"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// UpdatePlanUseCase revises a plan and rewrites the settings of every
// tenant subscribed to it in one statement, so no tenant keeps stale
// limits once the transaction commits.
type UpdatePlanUseCase struct {
	planRepo   subscription.PlanRepository
	tenantRepo tenant.Repository
	tx         TxRunner
	directory  TenantInvalidator
	auditor    Auditor
	logger     logger.Interface
}

func NewUpdatePlanUseCase(
	planRepo subscription.PlanRepository,
	tenantRepo tenant.Repository,
	tx TxRunner,
	directory TenantInvalidator,
	auditor Auditor,
	logger logger.Interface,
) *UpdatePlanUseCase {
	return &UpdatePlanUseCase{
		planRepo:   planRepo,
		tenantRepo: tenantRepo,
		tx:         tx,
		directory:  directory,
		auditor:    auditor,
		logger:     logger,
	}
}

func planImage(p *subscription.Plan) map[string]any {
	s := p.Settings()
	return map[string]any{
		"name":              p.Name(),
		"max_users":         s.MaxUsers,
		"max_records":       s.MaxRecords,
		"max_storage_bytes": s.MaxStorageBytes,
		"features":          s.Features,
	}
}

func (uc *UpdatePlanUseCase) Execute(ctx context.Context, actor *tenancy.Principal, slug string, req dto.UpdatePlanRequest) (*dto.UpdatePlanResponse, error) {
	plan, err := uc.planRepo.GetBySlug(ctx, slug)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError(subscription.ErrPlanNotFound.Error(), slug)
	}

	before := planImage(plan)
	if err := plan.Revise(req.Name, req.MaxUsers, req.MaxRecords, req.MaxStorageBytes, req.Features); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	metadata := activity.NewMetadata(before, planImage(plan))

	var affected []uint
	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.planRepo.Update(txCtx, plan); err != nil {
			return fmt.Errorf("failed to update plan: %w", err)
		}
		ids, err := uc.tenantRepo.ApplyPlanSettings(txCtx, plan.Slug(), plan.Settings())
		if err != nil {
			return fmt.Errorf("failed to apply plan settings: %w", err)
		}
		affected = ids
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to update plan", "slug", slug, "error", err)
		return nil, err
	}

	uc.directory.InvalidateIDs(ctx, affected)

	entity := activity.EntityRef{Type: "plan", ID: plan.Slug(), Name: plan.Name()}
	for _, id := range affected {
		e := appactivity.Entry{TenantID: id, Kind: activity.KindPlanUpdated, Entity: entity, Metadata: metadata}
		if actor != nil {
			e.ActorID = actor.UserID
			e.ActorName = actor.Name
		}
		uc.auditor.Record(ctx, e)
	}

	uc.logger.Infow("plan updated", "slug", slug, "tenants_affected", len(affected))
	return &dto.UpdatePlanResponse{Plan: dto.ToPlanDTO(plan), TenantsAffected: len(affected)}, nil
}
