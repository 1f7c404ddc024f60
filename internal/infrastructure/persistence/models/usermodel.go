package models

import (
	"time"

	"github.com/spendwise/spendwise/internal/shared/constants"
)

// UserModel represents both tenant members and platform operators. Operators
// have no tenant and no role.
type UserModel struct {
	ID           uint   `gorm:"primarykey"`
	SID          string `gorm:"column:sid;uniqueIndex;not null;size:32"`
	TenantID     *uint  `gorm:"index"`
	Email        string `gorm:"uniqueIndex;not null;size:255"`
	Name         string `gorm:"not null;size:100"`
	PasswordHash string `gorm:"not null;size:255"`
	RoleID       *uint  `gorm:"index"`
	OperatorRole string `gorm:"size:20"`
	Status       string `gorm:"not null;size:20;default:active"`
	LastLoginAt  *time.Time
	Version      int `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string {
	return constants.TableUsers
}
