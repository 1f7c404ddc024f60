package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/spendwise/spendwise/internal/shared/constants"
)

// RoleModel is a tenant-scoped role. Slugs are unique within a tenant.
type RoleModel struct {
	ID            uint   `gorm:"primarykey"`
	SID           string `gorm:"column:sid;uniqueIndex;not null;size:32"`
	TenantID      uint   `gorm:"not null;uniqueIndex:idx_roles_tenant_slug"`
	Name          string `gorm:"not null;size:100"`
	Slug          string `gorm:"not null;size:50;uniqueIndex:idx_roles_tenant_slug"`
	IsSystem      bool   `gorm:"not null;default:false"`
	IsTenantAdmin bool   `gorm:"not null;default:false"`
	Grants        datatypes.JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (RoleModel) TableName() string {
	return constants.TableRoles
}
