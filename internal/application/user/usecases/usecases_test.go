package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type memUsers struct {
	nextID    uint
	users     map[uint]*user.User
	createErr error
}

func newMemUsers() *memUsers { return &memUsers{users: make(map[uint]*user.User)} }

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	m.users[m.nextID] = u
	return u.SetID(m.nextID)
}

func (m *memUsers) Update(_ context.Context, u *user.User) error {
	m.users[u.ID()] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uint) (*user.User, error) { return m.users[id], nil }

func (m *memUsers) GetBySID(_ context.Context, sid string) (*user.User, error) {
	for _, u := range m.users {
		if u.SID() == sid {
			return u, nil
		}
	}
	return nil, nil
}

// GetByEmail matches normalized addresses, as the gorm repository does.
func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetMemberBySID(ctx context.Context, tenantID uint, sid string) (*user.User, error) {
	u, _ := m.GetBySID(ctx, sid)
	if u == nil || !u.BelongsTo(tenantID) {
		return nil, nil
	}
	return u, nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, _ := m.GetByEmail(ctx, email)
	return u != nil, nil
}

func (m *memUsers) CountActiveByTenant(_ context.Context, tenantID uint) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.BelongsTo(tenantID) && u.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *memUsers) ListByTenant(_ context.Context, tenantID uint) ([]*user.User, error) {
	var out []*user.User
	for id := uint(1); id <= m.nextID; id++ {
		if u := m.users[id]; u != nil && u.BelongsTo(tenantID) {
			out = append(out, u)
		}
	}
	return out, nil
}

type memRoles struct {
	permission.RoleRepository
	roles []*permission.Role
}

func newMemRoles(t *testing.T, tenantID uint) *memRoles {
	t.Helper()
	m := &memRoles{}
	for i, tpl := range permission.DefaultRoleTemplates() {
		r, err := permission.NewRole(fmt.Sprintf("rol_%d", i), tenantID, tpl.Name, tpl.Slug, true, tpl.IsTenantAdmin, tpl.Grants)
		require.NoError(t, err)
		require.NoError(t, r.SetID(uint(i+1)))
		m.roles = append(m.roles, r)
	}
	return m
}

func (m *memRoles) GetBySlug(_ context.Context, tenantID uint, slug string) (*permission.Role, error) {
	for _, r := range m.roles {
		if r.TenantID() == tenantID && r.Slug() == slug {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memRoles) GetByID(_ context.Context, tenantID, roleID uint) (*permission.Role, error) {
	for _, r := range m.roles {
		if r.TenantID() == tenantID && r.ID() == roleID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memRoles) ListByTenant(_ context.Context, tenantID uint) ([]*permission.Role, error) {
	return m.roles, nil
}

// seatQuota admits seats up to limit, undoing an admission when fn fails.
type seatQuota struct {
	used     int64
	limit    int64
	released int64
}

func (q *seatQuota) Within(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64, fn func(context.Context) error) error {
	if q.used+amount > q.limit {
		return errors.NewLimitExceededError(errors.CodeUserLimitExceeded, string(r), q.used, q.limit, t.PlanSlug())
	}
	q.used += amount
	if err := fn(ctx); err != nil {
		q.used -= amount
		return err
	}
	return nil
}

func (q *seatQuota) Release(_ context.Context, _ *tenant.Tenant, _ tenant.Resource, amount int64) error {
	q.used -= amount
	q.released += amount
	return nil
}

type directTx struct{}

func (directTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingAuditor struct{ entries []appactivity.Entry }

func (a *recordingAuditor) Record(_ context.Context, e appactivity.Entry) {
	a.entries = append(a.entries, e)
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

type issued struct {
	userSID, tenantSID, role string
	operator                 bool
}

type fakeSessions struct{ last issued }

func (f *fakeSessions) IssueSession(userSID, tenantSID, role string, operator bool) (string, time.Time, error) {
	f.last = issued{userSID, tenantSID, role, operator}
	return "token-" + userSID, testNow.Add(7 * 24 * time.Hour), nil
}

type tenantByID map[uint]*tenant.Tenant

func (m tenantByID) ResolveByID(_ context.Context, id uint) (*tenant.Tenant, error) {
	if t, ok := m[id]; ok {
		return t, nil
	}
	return nil, errors.NewTenantNotFoundError()
}

func testTenant(t *testing.T, id uint, sid string) *tenant.Tenant {
	t.Helper()
	tn, err := tenant.NewTenant(sid, "Org "+sid, "org-"+sid[len(sid)-1:], "free", tenant.NewSettings(3, 100, 1<<20, nil), 0, testNow)
	require.NoError(t, err)
	require.NoError(t, tn.SetID(id))
	return tn
}

var admin = &tenancy.Principal{UserID: 100, Name: "Admin", TenantID: 1}

func newCreateMember(t *testing.T) (*CreateMemberUseCase, *memUsers, *seatQuota, *recordingAuditor) {
	users := newMemUsers()
	q := &seatQuota{limit: 2}
	audit := &recordingAuditor{}
	uc := NewCreateMemberUseCase(users, newMemRoles(t, 1), plainHasher{}, q, audit, logger.NewNopLogger())
	return uc, users, q, audit
}

func TestCreateMember(t *testing.T) {
	uc, users, q, audit := newCreateMember(t)
	tn := testTenant(t, 1, "tnt_a")

	resp, err := uc.Execute(context.Background(), admin, tn, dto.CreateMemberRequest{
		Email: "Bob@Example.com", Name: "Bob", Password: "password1",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", resp.Email)
	assert.Equal(t, permission.RoleSlugMember, resp.Role)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, int64(1), q.used)

	stored, _ := users.GetByEmail(context.Background(), "bob@example.com")
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:password1", stored.PasswordHash())
	assert.True(t, stored.BelongsTo(1))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "user_created", audit.entries[0].Kind.Code())
	assert.Equal(t, uint(1), audit.entries[0].TenantID)
	assert.Equal(t, uint(100), audit.entries[0].ActorID)
}

func TestCreateMemberLimit(t *testing.T) {
	uc, users, q, audit := newCreateMember(t)
	tn := testTenant(t, 1, "tnt_a")
	ctx := context.Background()

	for i := range 2 {
		_, err := uc.Execute(ctx, admin, tn, dto.CreateMemberRequest{
			Email: fmt.Sprintf("m%d@example.com", i), Name: "M", Password: "password1",
		})
		require.NoError(t, err)
	}

	_, err := uc.Execute(ctx, admin, tn, dto.CreateMemberRequest{Email: "m9@example.com", Name: "M", Password: "password1"})
	require.Error(t, err)
	ge := errors.GetGateError(err)
	require.NotNil(t, ge)
	assert.Equal(t, errors.CodeUserLimitExceeded, ge.ErrorCode)
	assert.Equal(t, int64(2), q.used)
	assert.Len(t, users.users, 2)
	assert.Len(t, audit.entries, 2)
}

func TestCreateMemberRejects(t *testing.T) {
	tn := testTenant(t, 1, "tnt_a")
	ctx := context.Background()

	uc, users, q, _ := newCreateMember(t)
	_, err := uc.Execute(ctx, admin, tn, dto.CreateMemberRequest{Email: "a@example.com", Name: "A", Password: "password1", Role: "owner"})
	assert.True(t, errors.IsValidationError(err))

	_, err = uc.Execute(ctx, admin, tn, dto.CreateMemberRequest{Email: "a@example.com", Name: "A", Password: "password1"})
	require.NoError(t, err)
	_, err = uc.Execute(ctx, admin, tn, dto.CreateMemberRequest{Email: "A@example.com", Name: "A", Password: "password1"})
	assert.True(t, errors.IsConflictError(err))

	users.createErr = stderrors.New("Duplicate entry 'x' for key 'uk_users_email'")
	_, err = uc.Execute(ctx, admin, tn, dto.CreateMemberRequest{Email: "race@example.com", Name: "R", Password: "password1"})
	assert.True(t, errors.IsConflictError(err))
	assert.Equal(t, int64(1), q.used, "a failed insert never keeps the seat")
}

func TestDeactivateMember(t *testing.T) {
	users := newMemUsers()
	q := &seatQuota{limit: 5, used: 2}
	audit := &recordingAuditor{}
	uc := NewDeactivateMemberUseCase(users, q, directTx{}, audit, logger.NewNopLogger())
	tn := testTenant(t, 1, "tnt_a")
	other := testTenant(t, 2, "tnt_b")
	ctx := context.Background()

	bob, err := user.NewMember("usr_bob", 1, 2, "bob@example.com", "Bob", "h")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, bob))

	err = uc.Execute(ctx, admin, other, "usr_bob")
	assert.True(t, errors.IsNotFoundError(err), "members of other tenants read as not found")

	require.NoError(t, uc.Execute(ctx, admin, tn, "usr_bob"))
	assert.False(t, bob.IsActive())
	assert.Equal(t, int64(1), q.released)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "user_deactivated", audit.entries[0].Kind.Code())

	err = uc.Execute(ctx, admin, tn, "usr_bob")
	assert.True(t, errors.IsConflictError(err))
	assert.Equal(t, int64(1), q.released)

	carol, _ := user.NewMember("usr_carol", 1, 2, "carol@example.com", "Carol", "h")
	require.NoError(t, users.Create(ctx, carol))
	self := &tenancy.Principal{UserID: carol.ID(), TenantID: 1}
	assert.True(t, errors.IsValidationError(uc.Execute(ctx, self, tn, "usr_carol")))
}

func newLogin(t *testing.T) (*LoginUseCase, *memUsers, *fakeSessions, *tenant.Tenant) {
	users := newMemUsers()
	roles := newMemRoles(t, 1)
	tn := testTenant(t, 1, "tnt_a")
	sessions := &fakeSessions{}
	uc := NewLoginUseCase(users, roles, tenantByID{1: tn}, plainHasher{}, sessions, logger.NewNopLogger())
	uc.now = func() time.Time { return testNow }
	return uc, users, sessions, tn
}

func TestLoginMember(t *testing.T) {
	uc, users, sessions, tn := newLogin(t)
	ctx := context.Background()
	bob, err := user.NewMember("usr_bob", 1, 1, "bob@example.com", "Bob", "hashed:pw")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, bob))

	resp, err := uc.Execute(ctx, tn, dto.LoginRequest{Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "token-usr_bob", resp.Token)
	assert.Equal(t, "tnt_a", resp.TenantID)
	assert.Equal(t, permission.RoleSlugAdmin, resp.User.Role)
	assert.Equal(t, issued{"usr_bob", "tnt_a", permission.RoleSlugAdmin, false}, sessions.last)
	require.NotNil(t, bob.LastLoginAt())
	assert.Equal(t, testNow, *bob.LastLoginAt())
}

func TestLoginOperator(t *testing.T) {
	uc, users, sessions, _ := newLogin(t)
	ctx := context.Background()
	op, err := user.NewOperator("usr_ops", "ops@platform.test", "Ops", "hashed:pw", user.OperatorRoleSupport)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, op))

	resp, err := uc.Execute(ctx, nil, dto.LoginRequest{Email: "ops@platform.test", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, resp.TenantID)
	assert.Equal(t, issued{"usr_ops", "", user.OperatorRoleSupport, true}, sessions.last)
}

// upgradingHasher accepts plainHasher hashes but issues its own.
type upgradingHasher struct{ plainHasher }

func (upgradingHasher) Hash(p string) (string, error) { return "v2:" + p, nil }
func (upgradingHasher) NeedsRehash(h string) bool { return !strings.HasPrefix(h, "v2:") }

func TestLoginUpgradesStaleHash(t *testing.T) {
	uc, users, _, tn := newLogin(t)
	uc.hasher = upgradingHasher{}
	ctx := context.Background()
	bob, err := user.NewMember("usr_bob", 1, 1, "bob@example.com", "Bob", "hashed:pw")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, bob))

	_, err = uc.Execute(ctx, tn, dto.LoginRequest{Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "v2:pw", bob.PasswordHash())
}

func TestLoginFailures(t *testing.T) {
	uc, users, _, _ := newLogin(t)
	ctx := context.Background()
	bob, _ := user.NewMember("usr_bob", 1, 1, "bob@example.com", "Bob", "hashed:pw")
	require.NoError(t, users.Create(ctx, bob))
	orphan, _ := user.NewMember("usr_orphan", 9, 1, "orphan@example.com", "Orphan", "hashed:pw")
	require.NoError(t, users.Create(ctx, orphan))
	elsewhere := testTenant(t, 2, "tnt_b")

	tests := []struct {
		name  string
		host  *tenant.Tenant
		email string
		pass  string
		want  errors.ErrorType
	}{
		{"unknown email", nil, "nobody@example.com", "pw", errors.ErrorTypeInvalidCredentials},
		{"wrong password", nil, "bob@example.com", "nope", errors.ErrorTypeInvalidCredentials},
		{"other tenant host", elsewhere, "bob@example.com", "pw", errors.ErrorTypeInvalidCredentials},
		{"deleted tenant", nil, "orphan@example.com", "pw", errors.ErrorTypeInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.host, dto.LoginRequest{Email: tt.email, Password: tt.pass})
			ae := errors.GetAuthError(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.want, ae.Type)
		})
	}

	require.NoError(t, bob.Deactivate())
	_, err := uc.Execute(ctx, nil, dto.LoginRequest{Email: "bob@example.com", Password: "pw"})
	ae := errors.GetAuthError(err)
	require.NotNil(t, ae)
	assert.Equal(t, errors.ErrorTypeAccountInactive, ae.Type)
}

func TestListMembers(t *testing.T) {
	users := newMemUsers()
	ctx := context.Background()
	for i, slugRole := range []uint{1, 2} {
		m, err := user.NewMember(fmt.Sprintf("usr_%d", i), 1, slugRole, fmt.Sprintf("m%d@example.com", i), "M", "h")
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, m))
	}
	foreign, _ := user.NewMember("usr_x", 2, 1, "x@example.com", "X", "h")
	require.NoError(t, users.Create(ctx, foreign))

	out, err := NewListMembersUseCase(users, newMemRoles(t, 1), logger.NewNopLogger()).Execute(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, permission.RoleSlugAdmin, out[0].Role)
	assert.Equal(t, permission.RoleSlugMember, out[1].Role)
}
