package permission

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRoleNotFound    = errors.New("role not found")
	ErrSystemRoleInUse = errors.New("system role is held by members and cannot be changed")
	ErrInvalidGrant    = errors.New("invalid permission grant")
)

// Role is a named, tenant-scoped bundle of grants.
type Role struct {
	id            uint
	sid           string
	tenantID      uint
	name          string
	slug          string
	isSystem      bool
	isTenantAdmin bool
	grants        []Grant
	createdAt     time.Time
	updatedAt     time.Time
}

func NewRole(sid string, tenantID uint, name, slug string, isSystem, isTenantAdmin bool, grants []Grant) (*Role, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("role must belong to a tenant")
	}
	if name == "" || slug == "" {
		return nil, fmt.Errorf("role name and slug are required")
	}
	if len(slug) > 50 {
		return nil, fmt.Errorf("role slug too long (max 50 characters)")
	}
	if err := validateGrants(grants); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Role{
		sid:           sid,
		tenantID:      tenantID,
		name:          name,
		slug:          slug,
		isSystem:      isSystem,
		isTenantAdmin: isTenantAdmin,
		grants:        grants,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func ReconstructRole(id uint, sid string, tenantID uint, name, slug string, isSystem, isTenantAdmin bool,
	grants []Grant, createdAt, updatedAt time.Time) (*Role, error) {
	if id == 0 {
		return nil, fmt.Errorf("role ID cannot be zero")
	}
	return &Role{
		id:            id,
		sid:           sid,
		tenantID:      tenantID,
		name:          name,
		slug:          slug,
		isSystem:      isSystem,
		isTenantAdmin: isTenantAdmin,
		grants:        grants,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func validateGrants(grants []Grant) error {
	for _, g := range grants {
		if g.Resource == "" {
			return fmt.Errorf("%w: empty resource", ErrInvalidGrant)
		}
		for _, a := range g.Actions {
			if !a.IsValid() {
				return fmt.Errorf("%w: unknown action %q on %s", ErrInvalidGrant, a, g.Resource)
			}
		}
	}
	return nil
}

func (r *Role) ID() uint             { return r.id }
func (r *Role) SID() string          { return r.sid }
func (r *Role) TenantID() uint       { return r.tenantID }
func (r *Role) Name() string         { return r.name }
func (r *Role) Slug() string         { return r.slug }
func (r *Role) IsSystem() bool       { return r.isSystem }
func (r *Role) IsTenantAdmin() bool  { return r.isTenantAdmin }
func (r *Role) Grants() []Grant      { return r.grants }
func (r *Role) CreatedAt() time.Time { return r.createdAt }
func (r *Role) UpdatedAt() time.Time { return r.updatedAt }

func (r *Role) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("role ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("role ID cannot be zero")
	}
	r.id = id
	return nil
}

// Can reports whether holders of this role may perform action on resource.
func (r *Role) Can(resource string, action Action) bool {
	return Evaluate(r.isTenantAdmin, r.grants, resource, action)
}

// EnsureMutable rejects edits or deletion of a system role that is still held.
func (r *Role) EnsureMutable(holders int64) error {
	if r.isSystem && holders > 0 {
		return ErrSystemRoleInUse
	}
	return nil
}

// ReplaceGrants swaps the role's grant set after the holder check.
func (r *Role) ReplaceGrants(grants []Grant, holders int64) error {
	if err := r.EnsureMutable(holders); err != nil {
		return err
	}
	if err := validateGrants(grants); err != nil {
		return err
	}
	r.grants = grants
	r.updatedAt = time.Now().UTC()
	return nil
}
