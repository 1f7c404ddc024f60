package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/mappers"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// RoleRepositoryImpl scopes every query by tenant_id.
type RoleRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewRoleRepository(db *gorm.DB, logger logger.Interface) *RoleRepositoryImpl {
	return &RoleRepositoryImpl{db: db, logger: logger}
}

func (r *RoleRepositoryImpl) Create(ctx context.Context, role *permission.Role) error {
	model, err := mappers.RoleToModel(role)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create role", "tenant_id", role.TenantID(), "slug", role.Slug(), "error", err)
		return fmt.Errorf("failed to create role: %w", err)
	}
	return role.SetID(model.ID)
}

func (r *RoleRepositoryImpl) Update(ctx context.Context, role *permission.Role) error {
	model, err := mappers.RoleToModel(role)
	if err != nil {
		return err
	}
	result := db.GetTxFromContext(ctx, r.db).Model(&models.RoleModel{}).
		Scopes(db.ForTenant(role.TenantID())).
		Where("id = ?", role.ID()).
		Updates(map[string]any{
			"name":       model.Name,
			"grants":     model.Grants,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update role", "role_id", role.ID(), "error", result.Error)
		return fmt.Errorf("failed to update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return permission.ErrRoleNotFound
	}
	return nil
}

func (r *RoleRepositoryImpl) first(ctx context.Context, tenantID uint, query string, args ...any) (*permission.Role, error) {
	var model models.RoleModel
	if err := db.GetTxFromContext(ctx, r.db).Scopes(db.ForTenant(tenantID)).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return mappers.RoleToEntity(&model)
}

func (r *RoleRepositoryImpl) GetByID(ctx context.Context, tenantID, roleID uint) (*permission.Role, error) {
	return r.first(ctx, tenantID, "id = ?", roleID)
}

func (r *RoleRepositoryImpl) GetBySlug(ctx context.Context, tenantID uint, slug string) (*permission.Role, error) {
	return r.first(ctx, tenantID, "slug = ?", slug)
}

func (r *RoleRepositoryImpl) ListByTenant(ctx context.Context, tenantID uint) ([]*permission.Role, error) {
	var rows []*models.RoleModel
	if err := db.GetTxFromContext(ctx, r.db).Scopes(db.ForTenant(tenantID)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	out := make([]*permission.Role, 0, len(rows))
	for _, m := range rows {
		role, err := mappers.RoleToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, nil
}

// CountHolders counts active members of tenantID holding roleID.
func (r *RoleRepositoryImpl) CountHolders(ctx context.Context, tenantID, roleID uint) (int64, error) {
	var n int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.UserModel{}).
		Scopes(db.ForTenant(tenantID)).
		Where("role_id = ? AND status = ?", roleID, string(user.StatusActive)).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count role holders: %w", err)
	}
	return n, nil
}
