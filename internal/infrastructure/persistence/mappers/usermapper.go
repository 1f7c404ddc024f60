package mappers

import (
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
)

func UserToEntity(model *models.UserModel) (*user.User, error) {
	if model == nil {
		return nil, nil
	}
	return user.ReconstructUser(
		model.ID, model.SID, model.TenantID, model.Email, model.Name, model.PasswordHash,
		model.RoleID, model.OperatorRole, user.Status(model.Status), model.LastLoginAt,
		model.Version, model.CreatedAt, model.UpdatedAt,
	)
}

func UserToModel(entity *user.User) *models.UserModel {
	return &models.UserModel{
		ID:           entity.ID(),
		SID:          entity.SID(),
		TenantID:     entity.TenantID(),
		Email:        entity.Email(),
		Name:         entity.Name(),
		PasswordHash: entity.PasswordHash(),
		RoleID:       entity.RoleID(),
		OperatorRole: entity.OperatorRole(),
		Status:       string(entity.Status()),
		LastLoginAt:  entity.LastLoginAt(),
		Version:      entity.Version(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}
}
