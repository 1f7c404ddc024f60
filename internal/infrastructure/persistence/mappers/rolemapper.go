package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
)

func RoleToEntity(model *models.RoleModel) (*permission.Role, error) {
	if model == nil {
		return nil, nil
	}
	var grants []permission.Grant
	if len(model.Grants) > 0 {
		if err := json.Unmarshal(model.Grants, &grants); err != nil {
			return nil, fmt.Errorf("failed to decode role grants: %w", err)
		}
	}
	return permission.ReconstructRole(
		model.ID, model.SID, model.TenantID, model.Name, model.Slug,
		model.IsSystem, model.IsTenantAdmin, grants, model.CreatedAt, model.UpdatedAt,
	)
}

func RoleToModel(entity *permission.Role) (*models.RoleModel, error) {
	grants := entity.Grants()
	if grants == nil {
		grants = []permission.Grant{}
	}
	raw, err := json.Marshal(grants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode role grants: %w", err)
	}
	return &models.RoleModel{
		ID:            entity.ID(),
		SID:           entity.SID(),
		TenantID:      entity.TenantID(),
		Name:          entity.Name(),
		Slug:          entity.Slug(),
		IsSystem:      entity.IsSystem(),
		IsTenantAdmin: entity.IsTenantAdmin(),
		Grants:        raw,
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}, nil
}
