package dto

import (
	"time"

	"github.com/spendwise/spendwise/internal/domain/subscription"
)

type PlanDTO struct {
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	MaxUsers        int64     `json:"max_users"`
	MaxRecords      int64     `json:"max_records"`
	MaxStorageBytes int64     `json:"max_storage_bytes"`
	Features        []string  `json:"features"`
	TrialDays       int       `json:"trial_days"`
	IsActive        bool      `json:"is_active"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func ToPlanDTO(p *subscription.Plan) *PlanDTO {
	features := p.Settings().Features
	if features == nil {
		features = []string{}
	}
	return &PlanDTO{
		Slug:            p.Slug(),
		Name:            p.Name(),
		MaxUsers:        p.MaxUsers(),
		MaxRecords:      p.MaxRecords(),
		MaxStorageBytes: p.MaxStorageBytes(),
		Features:        features,
		TrialDays:       p.TrialDays(),
		IsActive:        p.IsActive(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

// UpdatePlanRequest replaces a plan's limits; -1 means unlimited.
type UpdatePlanRequest struct {
	Name            string   `json:"name" binding:"required,max=100"`
	MaxUsers        int64    `json:"max_users" binding:"min=-1"`
	MaxRecords      int64    `json:"max_records" binding:"min=-1"`
	MaxStorageBytes int64    `json:"max_storage_bytes" binding:"min=-1"`
	Features        []string `json:"features" binding:"omitempty,dive,required,max=50"`
}

type UpdatePlanResponse struct {
	Plan            *PlanDTO `json:"plan"`
	TenantsAffected int      `json:"tenants_affected"`
}

// CatalogEntry is one plan in the YAML catalog file.
type CatalogEntry struct {
	Slug            string   `yaml:"slug"`
	Name            string   `yaml:"name"`
	MaxUsers        int64    `yaml:"max_users"`
	MaxRecords      int64    `yaml:"max_records"`
	MaxStorageBytes int64    `yaml:"max_storage_bytes"`
	Features        []string `yaml:"features"`
	TrialDays       int      `yaml:"trial_days"`
}

type Catalog struct {
	Plans []CatalogEntry `yaml:"plans"`
}
