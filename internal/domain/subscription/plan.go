package subscription

import (
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/domain/tenant"
)

// Plan is a catalog entry. Tenants reference it by slug and carry a copy of
// its limits and features, refreshed whenever the plan changes.
type Plan struct {
	id              uint
	slug            string
	name            string
	maxUsers        int64
	maxRecords      int64
	maxStorageBytes int64
	features        []string
	trialDays       int
	isActive        bool
	version         int
	createdAt       time.Time
	updatedAt       time.Time
}

func validateLimit(name string, v int64) error {
	if v < tenant.Unlimited {
		return fmt.Errorf("%s must be -1 (unlimited) or non-negative", name)
	}
	return nil
}

func NewPlan(slug, name string, maxUsers, maxRecords, maxStorageBytes int64, features []string, trialDays int) (*Plan, error) {
	if slug == "" {
		return nil, fmt.Errorf("plan slug is required")
	}
	if len(slug) > 50 {
		return nil, fmt.Errorf("plan slug too long (max 50 characters)")
	}
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	p := &Plan{slug: slug, name: name, isActive: true, version: 1}
	if err := p.setLimits(maxUsers, maxRecords, maxStorageBytes, features); err != nil {
		return nil, err
	}
	if trialDays < 0 {
		return nil, fmt.Errorf("trial days cannot be negative")
	}
	p.trialDays = trialDays
	now := time.Now().UTC()
	p.createdAt = now
	p.updatedAt = now
	return p, nil
}

func ReconstructPlan(id uint, slug, name string, maxUsers, maxRecords, maxStorageBytes int64,
	features []string, trialDays int, isActive bool, version int, createdAt, updatedAt time.Time) (*Plan, error) {
	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	return &Plan{
		id:              id,
		slug:            slug,
		name:            name,
		maxUsers:        maxUsers,
		maxRecords:      maxRecords,
		maxStorageBytes: maxStorageBytes,
		features:        features,
		trialDays:       trialDays,
		isActive:        isActive,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (p *Plan) setLimits(maxUsers, maxRecords, maxStorageBytes int64, features []string) error {
	if err := validateLimit("max users", maxUsers); err != nil {
		return err
	}
	if err := validateLimit("max records", maxRecords); err != nil {
		return err
	}
	if err := validateLimit("max storage", maxStorageBytes); err != nil {
		return err
	}
	p.maxUsers = maxUsers
	p.maxRecords = maxRecords
	p.maxStorageBytes = maxStorageBytes
	p.features = tenant.NewSettings(0, 0, 0, features).Features
	return nil
}

func (p *Plan) ID() uint               { return p.id }
func (p *Plan) Slug() string           { return p.slug }
func (p *Plan) Name() string           { return p.name }
func (p *Plan) MaxUsers() int64        { return p.maxUsers }
func (p *Plan) MaxRecords() int64      { return p.maxRecords }
func (p *Plan) MaxStorageBytes() int64 { return p.maxStorageBytes }
func (p *Plan) Features() []string     { return p.features }
func (p *Plan) TrialDays() int         { return p.trialDays }
func (p *Plan) IsActive() bool         { return p.isActive }
func (p *Plan) Version() int           { return p.version }
func (p *Plan) CreatedAt() time.Time   { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time   { return p.updatedAt }

func (p *Plan) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = id
	return nil
}

// Settings derives the tenant entitlements granted by this plan.
func (p *Plan) Settings() tenant.Settings {
	return tenant.NewSettings(p.maxUsers, p.maxRecords, p.maxStorageBytes, p.features)
}

// Revise replaces the plan's limits and features. Callers fan the new
// settings out to every subscribing tenant.
func (p *Plan) Revise(name string, maxUsers, maxRecords, maxStorageBytes int64, features []string) error {
	if name != "" {
		p.name = name
	}
	if err := p.setLimits(maxUsers, maxRecords, maxStorageBytes, features); err != nil {
		return err
	}
	p.version++
	p.updatedAt = time.Now().UTC()
	return nil
}

func (p *Plan) Deactivate() {
	p.isActive = false
	p.updatedAt = time.Now().UTC()
}
