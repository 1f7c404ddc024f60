package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/mappers"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// TenantRepositoryImpl persists tenants. HardDelete removes rows from every
// table in scopedTables before removing the tenant itself.
type TenantRepositoryImpl struct {
	db           *gorm.DB
	mapper       mappers.TenantMapper
	scopedTables []string
	logger       logger.Interface
}

// NewTenantRepository builds the repository. extraScopedTables names
// product tables carrying a tenant_id column that a hard delete must purge;
// empty names are ignored.
func NewTenantRepository(db *gorm.DB, extraScopedTables []string, logger logger.Interface) (*TenantRepositoryImpl, error) {
	tables := []string{constants.TableActivities, constants.TableUsers, constants.TableRoles}
	for _, t := range extraScopedTables {
		if t == "" {
			continue
		}
		if !tableNamePattern.MatchString(t) {
			return nil, fmt.Errorf("invalid tenant-scoped table name %q", t)
		}
		tables = append([]string{t}, tables...)
	}
	return &TenantRepositoryImpl{
		db:           db,
		mapper:       mappers.NewTenantMapper(),
		scopedTables: tables,
		logger:       logger,
	}, nil
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, t *tenant.Tenant) error {
	model, err := r.mapper.ToModel(t)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create tenant", "slug", t.Slug(), "error", err)
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return t.SetID(model.ID)
}

func (r *TenantRepositoryImpl) Update(ctx context.Context, t *tenant.Tenant) error {
	model, err := r.mapper.ToModel(t)
	if err != nil {
		return err
	}
	result := db.GetTxFromContext(ctx, r.db).Model(&models.TenantModel{}).
		Where("id = ?", t.ID()).
		Updates(map[string]any{
			"name":                model.Name,
			"custom_domain":       model.CustomDomain,
			"domain_verified":     model.DomainVerified,
			"domain_verify_token": model.DomainVerifyToken,
			"status":              model.Status,
			"plan_slug":           model.PlanSlug,
			"max_users":           model.MaxUsers,
			"max_records":         model.MaxRecords,
			"max_storage_bytes":   model.MaxStorageBytes,
			"features":            model.Features,
			"trial_end_date":      model.TrialEndDate,
			"is_active":           model.IsActive,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update tenant", "tenant_id", t.ID(), "error", result.Error)
		return fmt.Errorf("failed to update tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// first loads one tenant matching the scope, with its usage snapshot when withUsage is set.
func (r *TenantRepositoryImpl) first(ctx context.Context, withUsage bool, query string, args ...any) (*tenant.Tenant, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	var model models.TenantModel
	if err := tx.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	var usage *models.TenantUsageModel
	if withUsage {
		var u models.TenantUsageModel
		err := tx.Where("tenant_id = ?", model.ID).First(&u).Error
		switch {
		case err == nil:
			usage = &u
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to get tenant usage: %w", err)
		}
	}
	return r.mapper.ToEntity(&model, usage)
}

func (r *TenantRepositoryImpl) GetByID(ctx context.Context, id uint) (*tenant.Tenant, error) {
	return r.first(ctx, true, "id = ?", id)
}

func (r *TenantRepositoryImpl) GetBySID(ctx context.Context, sid string) (*tenant.Tenant, error) {
	return r.first(ctx, true, "sid = ?", sid)
}

func (r *TenantRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.first(ctx, false, "slug = ? AND is_active = ?", slug, true)
}

func (r *TenantRepositoryImpl) GetByVerifiedDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	return r.first(ctx, false, "custom_domain = ? AND domain_verified = ? AND is_active = ?", host, true, true)
}

func (r *TenantRepositoryImpl) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.TenantModel{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check tenant slug: %w", err)
	}
	return n > 0, nil
}

func (r *TenantRepositoryImpl) DomainInUse(ctx context.Context, domain string, excludeID uint) (bool, error) {
	var n int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.TenantModel{}).
		Where("custom_domain = ? AND id <> ?", domain, excludeID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check custom domain: %w", err)
	}
	return n > 0, nil
}

func (r *TenantRepositoryImpl) List(ctx context.Context, filter tenant.ListFilter) ([]*tenant.Tenant, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.TenantModel{}).Where("is_active = ?", true)
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.PlanSlug != "" {
		query = query.Where("plan_slug = ?", filter.PlanSlug)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count tenants", "error", err)
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = constants.DefaultPage
	}
	if size < 1 {
		size = constants.DefaultPageSize
	}
	var rows []*models.TenantModel
	if err := query.Order("id ASC").Offset((page - 1) * size).Limit(size).Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list tenants", "error", err)
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}

	out := make([]*tenant.Tenant, 0, len(rows))
	for _, m := range rows {
		t, err := r.mapper.ToEntity(m, nil)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, nil
}

func (r *TenantRepositoryImpl) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := db.GetTxFromContext(ctx, r.db).Model(&models.TenantModel{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant IDs: %w", err)
	}
	return ids, nil
}

func (r *TenantRepositoryImpl) ApplyPlanSettings(ctx context.Context, planSlug string, s tenant.Settings) ([]uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var ids []uint
	if err := tx.Model(&models.TenantModel{}).Where("plan_slug = ?", planSlug).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants on plan: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	features, err := mappers.EncodeFeatures(s.Features)
	if err != nil {
		return nil, err
	}
	err = tx.Model(&models.TenantModel{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"max_users":         s.MaxUsers,
			"max_records":       s.MaxRecords,
			"max_storage_bytes": s.MaxStorageBytes,
			"features":          features,
			"version":           gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		r.logger.Errorw("failed to apply plan settings", "plan", planSlug, "error", err)
		return nil, fmt.Errorf("failed to apply plan settings: %w", err)
	}
	return ids, nil
}

func (r *TenantRepositoryImpl) HardDelete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	for _, table := range r.scopedTables {
		if !tx.Migrator().HasTable(table) {
			continue
		}
		if err := tx.Exec("DELETE FROM ? WHERE tenant_id = ?", clause.Table{Name: table}, id).Error; err != nil {
			return fmt.Errorf("failed to purge %s: %w", table, err)
		}
	}
	if err := tx.Where("tenant_id = ?", id).Delete(&models.TenantUsageModel{}).Error; err != nil {
		return fmt.Errorf("failed to purge tenant usage: %w", err)
	}
	result := tx.Delete(&models.TenantModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
