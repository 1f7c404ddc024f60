package subscription

import (
	"context"
	"fmt"
	"os"

	"github.com/spendwise/spendwise/internal/application/subscription/dto"
	"github.com/spendwise/spendwise/internal/application/subscription/usecases"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// ServiceDDD exposes the plan catalog.
type ServiceDDD struct {
	logger logger.Interface

	seed       *usecases.SeedCatalogUseCase
	updatePlan *usecases.UpdatePlanUseCase
	listPlans  *usecases.ListPlansUseCase
	getPlan    *usecases.GetPlanUseCase
}

func NewServiceDDD(
	planRepo subscription.PlanRepository,
	tenantRepo tenant.Repository,
	tx usecases.TxRunner,
	directory usecases.TenantInvalidator,
	auditor usecases.Auditor,
	logger logger.Interface,
) *ServiceDDD {
	return &ServiceDDD{
		logger: logger,

		seed:       usecases.NewSeedCatalogUseCase(planRepo, logger),
		updatePlan: usecases.NewUpdatePlanUseCase(planRepo, tenantRepo, tx, directory, auditor, logger),
		listPlans:  usecases.NewListPlansUseCase(planRepo, logger),
		getPlan:    usecases.NewGetPlanUseCase(planRepo, logger),
	}
}

// SeedFromFile creates the plans in the catalog file at path that do not exist yet.
func (s *ServiceDDD) SeedFromFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open plan catalog: %w", err)
	}
	defer f.Close()

	catalog, err := usecases.ParseCatalog(f)
	if err != nil {
		return 0, err
	}
	return s.seed.Execute(ctx, catalog)
}

func (s *ServiceDDD) UpdatePlan(ctx context.Context, actor *tenancy.Principal, slug string, req dto.UpdatePlanRequest) (*dto.UpdatePlanResponse, error) {
	return s.updatePlan.Execute(ctx, actor, slug, req)
}

func (s *ServiceDDD) ListPlans(ctx context.Context) ([]*dto.PlanDTO, error) {
	return s.listPlans.Execute(ctx)
}

func (s *ServiceDDD) GetPlan(ctx context.Context, slug string) (*dto.PlanDTO, error) {
	return s.getPlan.Execute(ctx, slug)
}
