package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/mappers"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUserRepository(db *gorm.DB, logger logger.Interface) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db, logger: logger}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, u *user.User) error {
	model := mappers.UserToModel(u)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create user", "email", u.Email(), "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return u.SetID(model.ID)
}

func (r *UserRepositoryImpl) Update(ctx context.Context, u *user.User) error {
	model := mappers.UserToModel(u)
	result := db.GetTxFromContext(ctx, r.db).Model(&models.UserModel{}).
		Where("id = ?", u.ID()).
		Updates(map[string]any{
			"name":          model.Name,
			"password_hash": model.PasswordHash,
			"role_id":       model.RoleID,
			"status":        model.Status,
			"last_login_at": model.LastLoginAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update user", "user_id", u.ID(), "error", result.Error)
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) first(ctx context.Context, query string, args ...any) (*user.User, error) {
	var model models.UserModel
	if err := db.GetTxFromContext(ctx, r.db).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return mappers.UserToEntity(&model)
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uint) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepositoryImpl) GetBySID(ctx context.Context, sid string) (*user.User, error) {
	return r.first(ctx, "sid = ?", sid)
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", user.NormalizeEmail(email))
}

func (r *UserRepositoryImpl) GetMemberBySID(ctx context.Context, tenantID uint, sid string) (*user.User, error) {
	if tenantID == 0 {
		return nil, nil
	}
	return r.first(ctx, "tenant_id = ? AND sid = ?", tenantID, sid)
}

func (r *UserRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.UserModel{}).
		Where("email = ?", user.NormalizeEmail(email)).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepositoryImpl) CountActiveByTenant(ctx context.Context, tenantID uint) (int64, error) {
	var n int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.UserModel{}).
		Scopes(db.ForTenant(tenantID)).
		Where("status = ?", string(user.StatusActive)).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *UserRepositoryImpl) ListByTenant(ctx context.Context, tenantID uint) ([]*user.User, error) {
	var rows []*models.UserModel
	if err := db.GetTxFromContext(ctx, r.db).Scopes(db.ForTenant(tenantID)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*user.User, 0, len(rows))
	for _, m := range rows {
		u, err := mappers.UserToEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
