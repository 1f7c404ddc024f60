package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/spendwise/spendwise/internal/application/subscription/dto"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type ListPlansUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewListPlansUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{planRepo: planRepo, logger: logger}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context) ([]*dto.PlanDTO, error) {
	plans, err := uc.planRepo.List(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Slug() < plans[j].Slug() })

	out := make([]*dto.PlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, dto.ToPlanDTO(p))
	}
	return out, nil
}

type GetPlanUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewGetPlanUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *GetPlanUseCase {
	return &GetPlanUseCase{planRepo: planRepo, logger: logger}
}

func (uc *GetPlanUseCase) Execute(ctx context.Context, slug string) (*dto.PlanDTO, error) {
	p, err := uc.planRepo.GetBySlug(ctx, slug)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if p == nil {
		return nil, errors.NewNotFoundError(subscription.ErrPlanNotFound.Error(), slug)
	}
	return dto.ToPlanDTO(p), nil
}
