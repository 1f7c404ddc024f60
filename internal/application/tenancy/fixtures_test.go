package tenancy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
)

func newTestTenant(t *testing.T, id uint, status tenant.Status, trialEnd *time.Time, features ...string) *tenant.Tenant {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tn, err := tenant.ReconstructTenant(
		id, fmt.Sprintf("tnt_test%d", id), "Acme", "acme", nil, false, "",
		status, "free", tenant.NewSettings(5, 100, 1<<20, features), tenant.Usage{},
		trialEnd, true, 1, now, now,
	)
	require.NoError(t, err)
	return tn
}

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[uint]*permission.Role
	err   error
	calls int
}

func newFakeRoleRepo(roles ...*permission.Role) *fakeRoleRepo {
	r := &fakeRoleRepo{roles: make(map[uint]*permission.Role)}
	for _, role := range roles {
		r.roles[role.ID()] = role
	}
	return r
}

func (r *fakeRoleRepo) Create(context.Context, *permission.Role) error { return nil }

func (r *fakeRoleRepo) Update(_ context.Context, role *permission.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role.ID()] = role
	return nil
}

func (r *fakeRoleRepo) GetByID(_ context.Context, tenantID, roleID uint) (*permission.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	role, ok := r.roles[roleID]
	if !ok || role.TenantID() != tenantID {
		return nil, nil
	}
	return role, nil
}

func (r *fakeRoleRepo) GetBySlug(context.Context, uint, string) (*permission.Role, error) {
	return nil, nil
}

func (r *fakeRoleRepo) ListByTenant(context.Context, uint) ([]*permission.Role, error) {
	return nil, nil
}

func (r *fakeRoleRepo) CountHolders(context.Context, uint, uint) (int64, error) { return 0, nil }

func newTestRole(t *testing.T, id, tenantID uint, admin bool, grants ...permission.Grant) *permission.Role {
	t.Helper()
	now := time.Now()
	role, err := permission.ReconstructRole(id, "rol_test", tenantID, "Test", "test", false, admin, grants, now, now)
	require.NoError(t, err)
	return role
}

type fakeTenantRepo struct {
	tenant.Repository

	mu      sync.Mutex
	bySlug  map[string]*tenant.Tenant
	byHost  map[string]*tenant.Tenant
	bySID   map[string]*tenant.Tenant
	byID    map[uint]*tenant.Tenant
	loads   atomic.Int32
	delay   time.Duration
	loadErr error
}

func newFakeTenantRepo(tenants ...*tenant.Tenant) *fakeTenantRepo {
	r := &fakeTenantRepo{
		bySlug: make(map[string]*tenant.Tenant),
		byHost: make(map[string]*tenant.Tenant),
		bySID:  make(map[string]*tenant.Tenant),
		byID:   make(map[uint]*tenant.Tenant),
	}
	for _, tn := range tenants {
		r.put(tn)
	}
	return r
}

func (r *fakeTenantRepo) put(tn *tenant.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySlug[tn.Slug()] = tn
	r.bySID[tn.SID()] = tn
	r.byID[tn.ID()] = tn
	if d := tn.CustomDomain(); d != nil && tn.DomainVerified() {
		r.byHost[*d] = tn
	}
}

func (r *fakeTenantRepo) get(m map[string]*tenant.Tenant, key string) (*tenant.Tenant, error) {
	r.loads.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return m[key], nil
}

func (r *fakeTenantRepo) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	return r.get(r.bySlug, slug)
}

func (r *fakeTenantRepo) GetByVerifiedDomain(_ context.Context, host string) (*tenant.Tenant, error) {
	return r.get(r.byHost, host)
}

func (r *fakeTenantRepo) GetBySID(_ context.Context, sid string) (*tenant.Tenant, error) {
	return r.get(r.bySID, sid)
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id uint) (*tenant.Tenant, error) {
	r.loads.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

type cacheEntry struct {
	t *tenant.Tenant
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	dropped []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]cacheEntry)}
}

func (c *fakeCache) Get(_ context.Context, key string) (*tenant.Tenant, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.t, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, t *tenant.Tenant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{t: t}
	return nil
}

func (c *fakeCache) SetMissing(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{}
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.dropped = append(c.dropped, k)
	}
	return nil
}
