package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/mappers"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// currentRecords reads the records counter, treating an earlier period as zero.
const currentRecords = "(CASE WHEN records_period = ? THEN records ELSE 0 END)"

// TenantUsageRepositoryImpl keeps counters in tenant_usages. Increments are a
// single conditional UPDATE so concurrent admissions never overshoot a limit.
type TenantUsageRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
	now    func() time.Time
}

func NewTenantUsageRepository(db *gorm.DB, logger logger.Interface) *TenantUsageRepositoryImpl {
	return &TenantUsageRepositoryImpl{db: db, logger: logger, now: time.Now}
}

func (r *TenantUsageRepositoryImpl) Init(ctx context.Context, tenantID uint, period int) error {
	row := &models.TenantUsageModel{TenantID: tenantID, RecordsPeriod: period, UpdatedAt: r.now().UTC()}
	err := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tenant_id"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		r.logger.Errorw("failed to init tenant usage", "tenant_id", tenantID, "error", err)
		return fmt.Errorf("failed to init tenant usage: %w", err)
	}
	return nil
}

func (r *TenantUsageRepositoryImpl) Get(ctx context.Context, tenantID uint) (*tenant.Usage, error) {
	var m models.TenantUsageModel
	if err := db.GetTxFromContext(ctx, r.db).Where("tenant_id = ?", tenantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant usage: %w", err)
	}
	u := mappers.UsageToEntity(&m)
	return &u, nil
}

func (r *TenantUsageRepositoryImpl) TryIncrement(ctx context.Context, tenantID uint, res tenant.Resource, amount, limit int64, period int) (bool, error) {
	tx := db.GetTxFromContext(ctx, r.db).Model(&models.TenantUsageModel{}).Where("tenant_id = ?", tenantID)

	var updates map[string]any
	switch res {
	case tenant.ResourceUsers:
		tx = tx.Where("(? = -1 OR users + ? <= ?)", limit, amount, limit)
		updates = map[string]any{"users": gorm.Expr("users + ?", amount)}
	case tenant.ResourceStorage:
		tx = tx.Where("(? = -1 OR storage_bytes + ? <= ?)", limit, amount, limit)
		updates = map[string]any{"storage_bytes": gorm.Expr("storage_bytes + ?", amount)}
	case tenant.ResourceRecords:
		tx = tx.Where("(? = -1 OR "+currentRecords+" + ? <= ?)", limit, period, amount, limit)
		// map keys are applied in sorted order: records is computed before
		// records_period moves on, which matters on MySQL.
		updates = map[string]any{
			"records":        gorm.Expr(currentRecords+" + ?", period, amount),
			"records_period": period,
		}
	default:
		return false, fmt.Errorf("unknown resource %q", res)
	}
	updates["updated_at"] = r.now().UTC()

	result := tx.UpdateColumns(updates)
	if result.Error != nil {
		r.logger.Errorw("failed to increment tenant usage", "tenant_id", tenantID, "resource", res, "error", result.Error)
		return false, fmt.Errorf("failed to increment tenant usage: %w", result.Error)
	}
	// zero rows is either a full counter or a tenant without a row yet
	return result.RowsAffected == 1, nil
}

func (r *TenantUsageRepositoryImpl) Decrement(ctx context.Context, tenantID uint, res tenant.Resource, amount int64, period int) error {
	tx := db.GetTxFromContext(ctx, r.db).Model(&models.TenantUsageModel{}).Where("tenant_id = ?", tenantID)

	var col string
	switch res {
	case tenant.ResourceUsers:
		col = "users"
	case tenant.ResourceStorage:
		col = "storage_bytes"
	case tenant.ResourceRecords:
		col = "records"
		tx = tx.Where("records_period = ?", period)
	default:
		return fmt.Errorf("unknown resource %q", res)
	}

	err := tx.UpdateColumns(map[string]any{
		col:          gorm.Expr("CASE WHEN "+col+" > ? THEN "+col+" - ? ELSE 0 END", amount, amount),
		"updated_at": r.now().UTC(),
	}).Error
	if err != nil {
		r.logger.Errorw("failed to decrement tenant usage", "tenant_id", tenantID, "resource", res, "error", err)
		return fmt.Errorf("failed to decrement tenant usage: %w", err)
	}
	return nil
}

func (r *TenantUsageRepositoryImpl) Overwrite(ctx context.Context, tenantID uint, u tenant.Usage) error {
	row := &models.TenantUsageModel{
		TenantID:           tenantID,
		Users:              u.Users,
		Records:            u.Records,
		RecordsPeriod:      u.RecordsPeriod,
		StorageBytes:       u.StorageBytes,
		LastRecalculatedAt: u.LastRecalculatedAt,
		UpdatedAt:          r.now().UTC(),
	}
	err := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tenant_id"}}, UpdateAll: true}).
		Create(row).Error
	if err != nil {
		r.logger.Errorw("failed to overwrite tenant usage", "tenant_id", tenantID, "error", err)
		return fmt.Errorf("failed to overwrite tenant usage: %w", err)
	}
	return nil
}
