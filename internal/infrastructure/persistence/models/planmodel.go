package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/spendwise/spendwise/internal/shared/constants"
)

// PlanModel represents the database persistence model for catalog plans.
type PlanModel struct {
	ID              uint   `gorm:"primarykey"`
	Slug            string `gorm:"uniqueIndex;not null;size:50"`
	Name            string `gorm:"not null;size:100"`
	MaxUsers        int64  `gorm:"not null"`
	MaxRecords      int64  `gorm:"not null"`
	MaxStorageBytes int64  `gorm:"not null"`
	Features        datatypes.JSON
	TrialDays       int  `gorm:"not null;default:0"`
	IsActive        bool `gorm:"not null;default:true"`
	Version         int  `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PlanModel) TableName() string {
	return constants.TablePlans
}
