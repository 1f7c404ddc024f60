package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/mappers"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type ActivityRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ActivityMapper
	logger logger.Interface
}

func NewActivityRepository(db *gorm.DB, logger logger.Interface) *ActivityRepositoryImpl {
	return &ActivityRepositoryImpl{
		db:     db,
		mapper: mappers.NewActivityMapper(),
		logger: logger,
	}
}

func (r *ActivityRepositoryImpl) Create(ctx context.Context, a *activity.Activity) (bool, error) {
	model, err := r.mapper.ToModel(a)
	if err != nil {
		return false, err
	}
	result := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		r.logger.Errorw("failed to create activity", "tenant_id", a.TenantID(), "kind", a.Kind().String(), "error", result.Error)
		return false, fmt.Errorf("failed to create activity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	if err := a.SetID(model.ID); err != nil {
		return false, err
	}
	return true, nil
}

func visibilityStrings(scopes []activity.Visibility) []string {
	out := make([]string, len(scopes))
	for i, v := range scopes {
		out[i] = string(v)
	}
	return out
}

func (r *ActivityRepositoryImpl) scoped(ctx context.Context, tenantID uint, scopes []activity.Visibility) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db).Model(&models.ActivityModel{}).
		Scopes(db.ForTenant(tenantID)).
		Where("visibility IN ?", visibilityStrings(scopes))
}

func (r *ActivityRepositoryImpl) ListRecent(ctx context.Context, tenantID uint, scopes []activity.Visibility, limit int) ([]*activity.Activity, error) {
	if len(scopes) == 0 {
		return []*activity.Activity{}, nil
	}
	var rows []*models.ActivityModel
	if err := r.scoped(ctx, tenantID, scopes).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list activities", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return r.mapper.ToEntities(rows)
}

func (r *ActivityRepositoryImpl) CountUnread(ctx context.Context, tenantID uint, scopes []activity.Visibility, excludeUserID uint) (int64, error) {
	if len(scopes) == 0 {
		return 0, nil
	}
	var n int64
	err := r.scoped(ctx, tenantID, scopes).
		Where("is_read = ? AND performed_by <> ?", false, excludeUserID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread activities: %w", err)
	}
	return n, nil
}

func (r *ActivityRepositoryImpl) MarkAsRead(ctx context.Context, tenantID uint, scopes []activity.Visibility, sids []string) (int64, error) {
	if len(scopes) == 0 {
		return 0, nil
	}
	query := r.scoped(ctx, tenantID, scopes).Where("is_read = ?", false)
	if len(sids) > 0 {
		query = query.Where("sid IN ?", sids)
	}
	result := query.UpdateColumn("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark activities as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *ActivityRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Where("created_at < ? AND priority <> ?", cutoff, string(activity.PriorityCritical)).
		Delete(&models.ActivityModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to purge activities", "cutoff", cutoff, "error", result.Error)
		return 0, fmt.Errorf("failed to purge activities: %w", result.Error)
	}
	return result.RowsAffected, nil
}
