package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/mappers"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type TenantDeletionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewTenantDeletionRepository(db *gorm.DB, logger logger.Interface) *TenantDeletionRepositoryImpl {
	return &TenantDeletionRepositoryImpl{db: db, logger: logger}
}

func (r *TenantDeletionRepositoryImpl) Create(ctx context.Context, d *tenant.Deletion) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.DeletionToModel(d)).Error; err != nil {
		r.logger.Errorw("failed to record tenant deletion", "tenant_sid", d.TenantSID, "error", err)
		return fmt.Errorf("failed to record tenant deletion: %w", err)
	}
	return nil
}

// List returns the most recent deletions first.
func (r *TenantDeletionRepositoryImpl) List(ctx context.Context, limit int) ([]*tenant.Deletion, error) {
	var rows []*models.TenantDeletionModel
	if err := db.GetTxFromContext(ctx, r.db).Order("deleted_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenant deletions: %w", err)
	}
	out := make([]*tenant.Deletion, 0, len(rows))
	for _, m := range rows {
		out = append(out, mappers.DeletionToEntity(m))
	}
	return out, nil
}
