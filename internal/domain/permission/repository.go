package permission

import "context"

// RoleRepository reads and writes tenant-scoped roles. Every method is
// scoped by tenantID; a role from another tenant reads as not found.
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, tenantID, roleID uint) (*Role, error)
	GetBySlug(ctx context.Context, tenantID uint, slug string) (*Role, error)
	ListByTenant(ctx context.Context, tenantID uint) ([]*Role, error)
	CountHolders(ctx context.Context, tenantID, roleID uint) (int64, error)
}
