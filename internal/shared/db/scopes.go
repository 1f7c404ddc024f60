package db

import (
	"gorm.io/gorm"
)

// ForTenant restricts a query to rows owned by tenantID. Every query against a
// tenant-scoped table goes through this scope; a zero tenantID matches nothing.
//
//	db.Model(&models.ActivityModel{}).Scopes(db.ForTenant(tenantID)).Count(&n)
func ForTenant(tenantID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}
