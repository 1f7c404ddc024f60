package tenant

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

// Tenant is an isolated organizational customer and the unit of data
// partitioning. The slug is immutable once created.
type Tenant struct {
	id                uint
	sid               string
	name              string
	slug              string
	customDomain      *string
	domainVerified    bool
	domainVerifyToken string
	status            Status
	planSlug          string
	settings          Settings
	usage             Usage
	trialEndDate      *time.Time
	isActive          bool
	version           int
	createdAt         time.Time
	updatedAt         time.Time
}

// NewTenant creates a tenant. A positive trialDays starts it in trial.
func NewTenant(sid, name, slug, planSlug string, settings Settings, trialDays int, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if sid == "" {
		return nil, fmt.Errorf("tenant SID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("tenant name too long (max 100 characters)")
	}
	if slug == "" || slug != NormalizeSlug(slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	if planSlug == "" {
		return nil, fmt.Errorf("plan slug is required")
	}

	t := &Tenant{
		sid:       sid,
		name:      name,
		slug:      slug,
		status:    StatusActive,
		planSlug:  planSlug,
		settings:  settings,
		usage:     Usage{},
		isActive:  true,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
	if trialDays > 0 {
		end := now.AddDate(0, 0, trialDays)
		t.status = StatusTrial
		t.trialEndDate = &end
	}
	return t, nil
}

// ReconstructTenant rebuilds a tenant from persistence.
func ReconstructTenant(
	id uint,
	sid, name, slug string,
	customDomain *string,
	domainVerified bool,
	domainVerifyToken string,
	status Status,
	planSlug string,
	settings Settings,
	usage Usage,
	trialEndDate *time.Time,
	isActive bool,
	version int,
	createdAt, updatedAt time.Time,
) (*Tenant, error) {
	if id == 0 {
		return nil, fmt.Errorf("tenant ID cannot be zero")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid tenant status: %s", status)
	}
	return &Tenant{
		id:                id,
		sid:               sid,
		name:              name,
		slug:              slug,
		customDomain:      customDomain,
		domainVerified:    domainVerified,
		domainVerifyToken: domainVerifyToken,
		status:            status,
		planSlug:          planSlug,
		settings:          settings,
		usage:             usage,
		trialEndDate:      trialEndDate,
		isActive:          isActive,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

func (t *Tenant) ID() uint                  { return t.id }
func (t *Tenant) SID() string               { return t.sid }
func (t *Tenant) Name() string              { return t.name }
func (t *Tenant) Slug() string              { return t.slug }
func (t *Tenant) CustomDomain() *string     { return t.customDomain }
func (t *Tenant) DomainVerified() bool      { return t.domainVerified }
func (t *Tenant) DomainVerifyToken() string { return t.domainVerifyToken }
func (t *Tenant) Status() Status            { return t.status }
func (t *Tenant) PlanSlug() string          { return t.planSlug }
func (t *Tenant) Settings() Settings        { return t.settings }
func (t *Tenant) Usage() Usage              { return t.usage }
func (t *Tenant) TrialEndDate() *time.Time  { return t.trialEndDate }
func (t *Tenant) IsActive() bool            { return t.isActive }
func (t *Tenant) Version() int              { return t.version }
func (t *Tenant) CreatedAt() time.Time      { return t.createdAt }
func (t *Tenant) UpdatedAt() time.Time      { return t.updatedAt }

func (t *Tenant) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("tenant ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("tenant ID cannot be zero")
	}
	t.id = id
	return nil
}

// SetUsage replaces the usage snapshot, as loaded from the usage table.
func (t *Tenant) SetUsage(u Usage) {
	t.usage = u
}

// IsTrialExpired reports whether a trial tenant is past its end date.
func (t *Tenant) IsTrialExpired(now time.Time) bool {
	return t.status == StatusTrial && t.trialEndDate != nil && now.After(*t.trialEndDate)
}

func (t *Tenant) transition(target Status, now time.Time) error {
	if !t.status.CanTransitionTo(target) {
		return ErrInvalidTransition(t.status, target)
	}
	t.status = target
	t.touch(now)
	return nil
}

func (t *Tenant) touch(now time.Time) {
	t.version++
	t.updatedAt = now
}

func (t *Tenant) Suspend(now time.Time) error {
	return t.transition(StatusSuspended, now)
}

// Reactivate lifts a suspension. A tenant whose trial is still running goes
// back to trial, otherwise it becomes active.
func (t *Tenant) Reactivate(now time.Time) error {
	if t.status != StatusSuspended {
		return ErrInvalidTransition(t.status, StatusActive)
	}
	if t.trialEndDate != nil && now.Before(*t.trialEndDate) {
		return t.transition(StatusTrial, now)
	}
	return t.transition(StatusActive, now)
}

func (t *Tenant) Cancel(now time.Time) error {
	return t.transition(StatusCancelled, now)
}

// Activate converts a trial, or restores a cancelled tenant, to a paid active tenant.
func (t *Tenant) Activate(now time.Time) error {
	if err := t.transition(StatusActive, now); err != nil {
		return err
	}
	t.trialEndDate = nil
	return nil
}

// ExtendTrial pushes the trial end out by days, counted from now when the
// trial has already lapsed.
func (t *Tenant) ExtendTrial(days int, now time.Time) error {
	if t.status != StatusTrial {
		return ErrNotInTrial
	}
	if days <= 0 {
		return fmt.Errorf("trial extension must be positive")
	}
	base := now
	if t.trialEndDate != nil && t.trialEndDate.After(now) {
		base = *t.trialEndDate
	}
	end := base.AddDate(0, 0, days)
	t.trialEndDate = &end
	t.touch(now)
	return nil
}

// ChangePlan moves the tenant to planSlug and re-derives its entitlements.
func (t *Tenant) ChangePlan(planSlug string, settings Settings, now time.Time) {
	t.planSlug = planSlug
	t.settings = settings
	t.touch(now)
}

// SetCustomDomain records an unverified domain with its verification token.
func (t *Tenant) SetCustomDomain(domain, token string, now time.Time) error {
	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if domain == "" || !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid custom domain: %q", domain)
	}
	t.customDomain = &domain
	t.domainVerified = false
	t.domainVerifyToken = token
	t.touch(now)
	return nil
}

func (t *Tenant) VerifyCustomDomain(token string, now time.Time) error {
	if t.customDomain == nil {
		return ErrNoCustomDomain
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(t.domainVerifyToken)) != 1 {
		return ErrDomainVerificationFailed
	}
	t.domainVerified = true
	t.touch(now)
	return nil
}

func (t *Tenant) RemoveCustomDomain(now time.Time) error {
	if t.customDomain == nil {
		return ErrNoCustomDomain
	}
	t.customDomain = nil
	t.domainVerified = false
	t.domainVerifyToken = ""
	t.touch(now)
	return nil
}
