package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/spendwise/spendwise/internal/shared/constants"
)

// TenantModel represents the database persistence model for tenants.
// Plan-derived settings are denormalized onto the row so that resolving a
// tenant never needs a join.
type TenantModel struct {
	ID                uint    `gorm:"primarykey"`
	SID               string  `gorm:"column:sid;uniqueIndex;not null;size:32"`
	Name              string  `gorm:"not null;size:100"`
	Slug              string  `gorm:"uniqueIndex;not null;size:63"`
	CustomDomain      *string `gorm:"uniqueIndex;size:253"`
	DomainVerified    bool    `gorm:"not null;default:false"`
	DomainVerifyToken string  `gorm:"size:128"`
	Status            string  `gorm:"not null;size:20;index"`
	PlanSlug          string  `gorm:"not null;size:50;index"`
	MaxUsers          int64   `gorm:"not null"`
	MaxRecords        int64   `gorm:"not null"`
	MaxStorageBytes   int64   `gorm:"not null"`
	Features          datatypes.JSON
	TrialEndDate      *time.Time
	IsActive          bool `gorm:"not null;default:true"`
	Version           int  `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (TenantModel) TableName() string {
	return constants.TableTenants
}

// TenantUsageModel holds one tenant's consumption counters; one row per tenant.
type TenantUsageModel struct {
	TenantID           uint  `gorm:"primarykey;autoIncrement:false"`
	Users              int64 `gorm:"not null;default:0"`
	Records            int64 `gorm:"not null;default:0"`
	RecordsPeriod      int   `gorm:"not null;default:0"`
	StorageBytes       int64 `gorm:"not null;default:0"`
	LastRecalculatedAt *time.Time
	UpdatedAt          time.Time
}

func (TenantUsageModel) TableName() string {
	return constants.TableTenantUsages
}

// TenantDeletionModel is the platform-level record of a hard-deleted tenant.
// It carries no foreign key so it outlives the tenant.
type TenantDeletionModel struct {
	ID            uint   `gorm:"primarykey"`
	TenantSID     string `gorm:"column:tenant_sid;not null;size:32;index"`
	Slug          string `gorm:"not null;size:63"`
	Name          string `gorm:"not null;size:100"`
	PlanSlug      string `gorm:"size:50"`
	DeletedBy     uint
	DeletedByName string    `gorm:"size:100"`
	Reason        string    `gorm:"size:500"`
	DeletedAt     time.Time `gorm:"not null;index"`
}

func (TenantDeletionModel) TableName() string {
	return constants.TableTenantDeletions
}
