package user

import "context"

type Repository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	GetBySID(ctx context.Context, sid string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetMemberBySID is scoped by tenant; members of other tenants read as not found.
	GetMemberBySID(ctx context.Context, tenantID uint, sid string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountActiveByTenant(ctx context.Context, tenantID uint) (int64, error)
	ListByTenant(ctx context.Context, tenantID uint) ([]*User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
	// NeedsRehash reports whether hash was produced with other parameters
	// than the ones Hash uses now.
	NeedsRehash(hash string) bool
}
