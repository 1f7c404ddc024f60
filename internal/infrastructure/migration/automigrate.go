package migration

import (
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every model owned by the tenancy core.
func AutoMigrateModels() []any {
	return []any{
		&models.PlanModel{},
		&models.TenantModel{},
		&models.TenantUsageModel{},
		&models.TenantDeletionModel{},
		&models.RoleModel{},
		&models.UserModel{},
		&models.ActivityModel{},
	}
}
