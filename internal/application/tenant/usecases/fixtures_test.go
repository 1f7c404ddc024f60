package usecases

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/quota"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/errors"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type memTenants struct {
	mu      sync.Mutex
	nextID  uint
	byID    map[uint]*tenant.Tenant
	deleted []uint
}

func newMemTenants() *memTenants {
	return &memTenants{byID: make(map[uint]*tenant.Tenant)}
}

func (m *memTenants) Create(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.Slug() == t.Slug() {
			return stderrors.New("UNIQUE constraint failed: tenants.slug")
		}
	}
	m.nextID++
	if err := t.SetID(m.nextID); err != nil {
		return err
	}
	m.byID[t.ID()] = t
	return nil
}

func (m *memTenants) Update(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ID()] = t
	return nil
}

func (m *memTenants) GetByID(_ context.Context, id uint) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memTenants) find(match func(*tenant.Tenant) bool) *tenant.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if match(t) {
			return t
		}
	}
	return nil
}

func (m *memTenants) GetBySID(_ context.Context, sid string) (*tenant.Tenant, error) {
	return m.find(func(t *tenant.Tenant) bool { return t.SID() == sid }), nil
}

func (m *memTenants) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	return m.find(func(t *tenant.Tenant) bool { return t.Slug() == slug && t.IsActive() }), nil
}

func (m *memTenants) GetByVerifiedDomain(_ context.Context, host string) (*tenant.Tenant, error) {
	return m.find(func(t *tenant.Tenant) bool {
		d := t.CustomDomain()
		return d != nil && *d == host && t.DomainVerified()
	}), nil
}

func (m *memTenants) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return m.find(func(t *tenant.Tenant) bool { return t.Slug() == slug }) != nil, nil
}

func (m *memTenants) DomainInUse(_ context.Context, domain string, excludeID uint) (bool, error) {
	return m.find(func(t *tenant.Tenant) bool {
		d := t.CustomDomain()
		return d != nil && *d == domain && t.ID() != excludeID
	}) != nil, nil
}

func (m *memTenants) List(_ context.Context, f tenant.ListFilter) ([]*tenant.Tenant, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tenant.Tenant
	for _, t := range m.byID {
		if f.Status != "" && t.Status() != f.Status {
			continue
		}
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (m *memTenants) ListIDs(context.Context) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memTenants) ApplyPlanSettings(_ context.Context, planSlug string, s tenant.Settings) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint
	for _, t := range m.byID {
		if t.PlanSlug() == planSlug {
			t.ChangePlan(planSlug, s, testNow)
			ids = append(ids, t.ID())
		}
	}
	return ids, nil
}

func (m *memTenants) HardDelete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memTenants) put(t *testing.T, tn *tenant.Tenant) *tenant.Tenant {
	t.Helper()
	require.NoError(t, m.Create(context.Background(), tn))
	return tn
}

type memUsage struct {
	tenant.UsageRepository
	rows      map[uint]tenant.Usage
	recounted tenant.Usage
}

func newMemUsage() *memUsage {
	return &memUsage{rows: make(map[uint]tenant.Usage)}
}

func (m *memUsage) Init(_ context.Context, tenantID uint, period int) error {
	if _, ok := m.rows[tenantID]; !ok {
		m.rows[tenantID] = tenant.Usage{RecordsPeriod: period}
	}
	return nil
}

func (m *memUsage) Get(_ context.Context, tenantID uint) (*tenant.Usage, error) {
	u, ok := m.rows[tenantID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Recalculate makes memUsage its own reconciler.
func (m *memUsage) Recalculate(_ context.Context, tenantID uint) (*tenant.Usage, error) {
	u := m.recounted
	at := testNow
	u.LastRecalculatedAt = &at
	m.rows[tenantID] = u
	return &u, nil
}

type memPlans struct {
	bySlug map[string]*subscription.Plan
}

func newMemPlans(t *testing.T, plans ...*subscription.Plan) *memPlans {
	t.Helper()
	m := &memPlans{bySlug: make(map[string]*subscription.Plan)}
	for i, p := range plans {
		require.NoError(t, p.SetID(uint(i+1)))
		m.bySlug[p.Slug()] = p
	}
	return m
}

func (m *memPlans) Create(_ context.Context, p *subscription.Plan) error {
	m.bySlug[p.Slug()] = p
	return nil
}

func (m *memPlans) Update(_ context.Context, p *subscription.Plan) error {
	m.bySlug[p.Slug()] = p
	return nil
}

func (m *memPlans) GetBySlug(_ context.Context, slug string) (*subscription.Plan, error) {
	return m.bySlug[slug], nil
}

func (m *memPlans) List(context.Context) ([]*subscription.Plan, error) {
	out := make([]*subscription.Plan, 0, len(m.bySlug))
	for _, p := range m.bySlug {
		out = append(out, p)
	}
	return out, nil
}

func testPlan(t *testing.T, slug string, maxUsers int64, trialDays int, features ...string) *subscription.Plan {
	t.Helper()
	p, err := subscription.NewPlan(slug, slug, maxUsers, 100, 1<<20, features, trialDays)
	require.NoError(t, err)
	return p
}

type memRoles struct {
	permission.RoleRepository
	nextID uint
	roles  []*permission.Role
}

func (m *memRoles) Create(_ context.Context, r *permission.Role) error {
	m.nextID++
	m.roles = append(m.roles, r)
	return r.SetID(m.nextID)
}

type memUsers struct {
	user.Repository
	nextID uint
	users  []*user.User
}

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.nextID++
	m.users = append(m.users, u)
	return u.SetID(m.nextID)
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email() == email {
			return true, nil
		}
	}
	return false, nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) NeedsRehash(string) bool { return false }
func (plainHasher) Verify(p, h string) error {
	if h != "hashed:"+p {
		return stderrors.New("mismatch")
	}
	return nil
}

type admission struct {
	tenantID uint
	resource tenant.Resource
	amount   int64
}

type fakeQuota struct {
	calls  []admission
	reject bool
}

func (q *fakeQuota) Admit(_ context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) (*quota.Reservation, error) {
	q.calls = append(q.calls, admission{t.ID(), r, amount})
	if q.reject {
		return nil, errors.NewLimitExceededError(errors.CodeUserLimitExceeded, string(r), 0, 0, t.PlanSlug())
	}
	return &quota.Reservation{}, nil
}

type directTx struct{ runs int }

func (d *directTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	d.runs++
	return fn(ctx)
}

type invalidation struct {
	tenantID uint
	previous []string
}

type recordingCache struct {
	calls []invalidation
}

func (c *recordingCache) Invalidate(_ context.Context, t *tenant.Tenant, previousDomains ...string) {
	c.calls = append(c.calls, invalidation{t.ID(), previousDomains})
}

type recordingAuditor struct {
	entries []appactivity.Entry
}

func (a *recordingAuditor) Record(_ context.Context, e appactivity.Entry) {
	a.entries = append(a.entries, e)
}

func (a *recordingAuditor) kinds() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Kind.Code())
	}
	return out
}

type memDeletions struct {
	records []*tenant.Deletion
	err     error
}

func (m *memDeletions) Create(_ context.Context, d *tenant.Deletion) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, d)
	return nil
}

func (m *memDeletions) List(context.Context, int) ([]*tenant.Deletion, error) {
	return m.records, nil
}

func activeTenant(t *testing.T, sid, slug string) *tenant.Tenant {
	t.Helper()
	tn, err := tenant.NewTenant(sid, "Org "+slug, slug, "free", tenant.NewSettings(5, 100, 1<<20, nil), 0, testNow)
	require.NoError(t, err)
	return tn
}
