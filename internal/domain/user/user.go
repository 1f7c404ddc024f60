package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Operator roles apply to platform staff, who belong to no tenant.
const (
	OperatorRoleSuperAdmin = "superadmin"
	OperatorRoleSupport    = "support"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrAlreadyInactive = errors.New("user is already inactive")
)

// User is an authenticated principal. A tenant member has a tenant and a
// tenant-scoped role; a platform operator has neither and carries an
// operator role instead.
type User struct {
	id           uint
	sid          string
	tenantID     *uint
	email        string
	name         string
	passwordHash string
	roleID       *uint
	operatorRole string
	status       Status
	lastLoginAt  *time.Time
	version      int
	createdAt    time.Time
	updatedAt    time.Time
}

func normalizeEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("invalid email address: %q", email)
	}
	return email, nil
}

// NormalizeEmail returns the canonical lookup form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewMember creates an active tenant member.
func NewMember(sid string, tenantID, roleID uint, email, name, passwordHash string) (*User, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("tenant is required")
	}
	if roleID == 0 {
		return nil, fmt.Errorf("role is required")
	}
	u, err := newUser(sid, email, name, passwordHash)
	if err != nil {
		return nil, err
	}
	u.tenantID = &tenantID
	u.roleID = &roleID
	return u, nil
}

// NewOperator creates an active platform operator.
func NewOperator(sid, email, name, passwordHash, operatorRole string) (*User, error) {
	if operatorRole != OperatorRoleSuperAdmin && operatorRole != OperatorRoleSupport {
		return nil, fmt.Errorf("invalid operator role: %q", operatorRole)
	}
	u, err := newUser(sid, email, name, passwordHash)
	if err != nil {
		return nil, err
	}
	u.operatorRole = operatorRole
	return u, nil
}

func newUser(sid, email, name, passwordHash string) (*User, error) {
	if sid == "" {
		return nil, fmt.Errorf("user SID is required")
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	now := time.Now().UTC()
	return &User{
		sid:          sid,
		email:        normalized,
		name:         name,
		passwordHash: passwordHash,
		status:       StatusActive,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func ReconstructUser(id uint, sid string, tenantID *uint, email, name, passwordHash string, roleID *uint,
	operatorRole string, status Status, lastLoginAt *time.Time, version int, createdAt, updatedAt time.Time) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}
	if status != StatusActive && status != StatusInactive {
		return nil, fmt.Errorf("invalid user status: %s", status)
	}
	return &User{
		id:           id,
		sid:          sid,
		tenantID:     tenantID,
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		roleID:       roleID,
		operatorRole: operatorRole,
		status:       status,
		lastLoginAt:  lastLoginAt,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (u *User) ID() uint                { return u.id }
func (u *User) SID() string             { return u.sid }
func (u *User) TenantID() *uint         { return u.tenantID }
func (u *User) Email() string           { return u.email }
func (u *User) Name() string            { return u.name }
func (u *User) PasswordHash() string    { return u.passwordHash }
func (u *User) RoleID() *uint           { return u.roleID }
func (u *User) OperatorRole() string    { return u.operatorRole }
func (u *User) Status() Status          { return u.status }
func (u *User) LastLoginAt() *time.Time { return u.lastLoginAt }
func (u *User) Version() int            { return u.version }
func (u *User) CreatedAt() time.Time    { return u.createdAt }
func (u *User) UpdatedAt() time.Time    { return u.updatedAt }

func (u *User) SetID(id uint) error {
	if u.id != 0 {
		return fmt.Errorf("user ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("user ID cannot be zero")
	}
	u.id = id
	return nil
}

func (u *User) IsActive() bool {
	return u.status == StatusActive
}

func (u *User) IsOperator() bool {
	return u.tenantID == nil && u.operatorRole != ""
}

// BelongsTo reports whether u is a member of tenantID.
func (u *User) BelongsTo(tenantID uint) bool {
	return u.tenantID != nil && *u.tenantID == tenantID
}

func (u *User) Deactivate() error {
	if u.status == StatusInactive {
		return ErrAlreadyInactive
	}
	u.status = StatusInactive
	u.version++
	u.updatedAt = time.Now().UTC()
	return nil
}

func (u *User) RecordLogin(at time.Time) {
	u.lastLoginAt = &at
	u.updatedAt = at
}

func (u *User) ReplacePasswordHash(hash string) {
	u.passwordHash = hash
	u.updatedAt = time.Now().UTC()
}
