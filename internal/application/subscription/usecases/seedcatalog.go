package usecases

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/spendwise/spendwise/internal/application/subscription/dto"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// SeedCatalogUseCase loads the plan catalog file. Plans that already exist
// are left alone; operators change them through the admin API.
type SeedCatalogUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewSeedCatalogUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *SeedCatalogUseCase {
	return &SeedCatalogUseCase{planRepo: planRepo, logger: logger}
}

// ParseCatalog decodes a YAML catalog, rejecting unknown keys.
func ParseCatalog(r io.Reader) (*dto.Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c dto.Catalog
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return &c, nil
		}
		return nil, fmt.Errorf("failed to decode plan catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Plans))
	for _, p := range c.Plans {
		if _, dup := seen[p.Slug]; dup {
			return nil, fmt.Errorf("plan %q is listed twice in the catalog", p.Slug)
		}
		seen[p.Slug] = struct{}{}
	}
	return &c, nil
}

// Execute creates every catalog plan that does not exist yet and returns
// how many it created.
func (uc *SeedCatalogUseCase) Execute(ctx context.Context, catalog *dto.Catalog) (int, error) {
	created := 0
	for _, e := range catalog.Plans {
		existing, err := uc.planRepo.GetBySlug(ctx, e.Slug)
		if err != nil {
			uc.logger.Errorw("failed to get plan", "slug", e.Slug, "error", err)
			return created, fmt.Errorf("failed to get plan %s: %w", e.Slug, err)
		}
		if existing != nil {
			continue
		}

		plan, err := subscription.NewPlan(e.Slug, e.Name, e.MaxUsers, e.MaxRecords, e.MaxStorageBytes, e.Features, e.TrialDays)
		if err != nil {
			return created, fmt.Errorf("invalid catalog plan %s: %w", e.Slug, err)
		}
		if err := uc.planRepo.Create(ctx, plan); err != nil {
			uc.logger.Errorw("failed to create plan", "slug", e.Slug, "error", err)
			return created, fmt.Errorf("failed to create plan %s: %w", e.Slug, err)
		}
		created++
	}

	if created > 0 {
		uc.logger.Infow("plan catalog seeded", "created", created, "total", len(catalog.Plans))
	}
	return created, nil
}
