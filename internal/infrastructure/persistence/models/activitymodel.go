package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/spendwise/spendwise/internal/shared/constants"
)

// ActivityModel is an append-only audit record. The (tenant_id,
// idempotency_key) index makes a retried write a no-op.
type ActivityModel struct {
	ID              uint   `gorm:"primarykey"`
	SID             string `gorm:"column:sid;uniqueIndex;not null;size:32"`
	TenantID        uint   `gorm:"not null;index:idx_activities_tenant_created,priority:1;uniqueIndex:idx_activities_tenant_key,priority:1"`
	Kind            string `gorm:"not null;size:50"`
	Category        string `gorm:"not null;size:20"`
	Title           string `gorm:"not null;size:200"`
	Description     string `gorm:"type:text"`
	EntityType      string `gorm:"not null;size:50"`
	EntityID        string `gorm:"not null;size:64"`
	EntityName      string `gorm:"size:200"`
	PerformedBy     uint
	PerformedByName string `gorm:"size:100"`
	Metadata        datatypes.JSON
	IsRead          bool      `gorm:"not null;default:false"`
	Priority        string    `gorm:"not null;size:20;index"`
	Visibility      string    `gorm:"not null;size:20"`
	IdempotencyKey  string    `gorm:"not null;size:64;uniqueIndex:idx_activities_tenant_key,priority:2"`
	CreatedAt       time.Time `gorm:"not null;index:idx_activities_tenant_created,priority:2"`
}

func (ActivityModel) TableName() string {
	return constants.TableActivities
}
