package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/mappers"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) *PlanRepositoryImpl {
	return &PlanRepositoryImpl{db: db, logger: logger}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *subscription.Plan) error {
	model, err := mappers.PlanToModel(plan)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "slug", plan.Slug(), "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return plan.SetID(model.ID)
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *subscription.Plan) error {
	model, err := mappers.PlanToModel(plan)
	if err != nil {
		return err
	}
	result := db.GetTxFromContext(ctx, r.db).Model(&models.PlanModel{}).
		Where("id = ?", plan.ID()).
		Updates(map[string]any{
			"name":              model.Name,
			"max_users":         model.MaxUsers,
			"max_records":       model.MaxRecords,
			"max_storage_bytes": model.MaxStorageBytes,
			"features":          model.Features,
			"trial_days":        model.TrialDays,
			"is_active":         model.IsActive,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan", "slug", plan.Slug(), "error", result.Error)
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*subscription.Plan, error) {
	var model models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).Where("slug = ?", slug).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return mappers.PlanToEntity(&model)
}

func (r *PlanRepositoryImpl) List(ctx context.Context) ([]*subscription.Plan, error) {
	var rows []*models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).Order("slug ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	out := make([]*subscription.Plan, 0, len(rows))
	for _, m := range rows {
		p, err := mappers.PlanToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
