package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/config"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

func TestPlanRepository(t *testing.T) {
	repo := NewPlanRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	plan, err := subscription.NewPlan("pro", "Pro", 25, -1, 10<<30, []string{"reports", "export"}, 14)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, plan))

	found, err := repo.GetBySlug(ctx, "pro")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(25), found.MaxUsers())
	assert.Equal(t, 14, found.TrialDays())

	missing, err := repo.GetBySlug(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	free, err := subscription.NewPlan("free", "Free", 3, 100, 1<<20, nil, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, free))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "free", all[0].Slug())
}

func TestRoleAndUserRepositories(t *testing.T) {
	gdb := setupTestDB(t)
	tenants := newTenantRepo(t, gdb)
	roles := NewRoleRepository(gdb, logger.NewNopLogger())
	users := NewUserRepository(gdb, logger.NewNopLogger())
	ctx := context.Background()

	acme := createTestTenant(t, tenants, "acme")
	globex := createTestTenant(t, tenants, "globex")

	member, err := permission.NewRole("rol_1", acme.ID(), "Member", "member", true, false,
		[]permission.Grant{{Resource: "expenses", Actions: []permission.Action{permission.ActionRead}}})
	require.NoError(t, err)
	require.NoError(t, roles.Create(ctx, member))

	t.Run("roles are tenant scoped", func(t *testing.T) {
		found, err := roles.GetBySlug(ctx, acme.ID(), "member")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.Can("expenses", permission.ActionRead))

		found, err = roles.GetByID(ctx, globex.ID(), member.ID())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	bob, err := user.NewMember("usr_1", acme.ID(), member.ID(), " Bob@Acme.com ", "Bob", "hash")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, bob))

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		found, err := users.GetByEmail(ctx, "BOB@acme.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, bob.SID(), found.SID())

		taken, err := users.ExistsByEmail(ctx, "bob@acme.com")
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("members are tenant scoped", func(t *testing.T) {
		found, err := users.GetMemberBySID(ctx, globex.ID(), bob.SID())
		require.NoError(t, err)
		assert.Nil(t, found)

		list, err := users.ListByTenant(ctx, acme.ID())
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("holders and active counts follow deactivation", func(t *testing.T) {
		n, err := roles.CountHolders(ctx, acme.ID(), member.ID())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		require.NoError(t, bob.Deactivate())
		require.NoError(t, users.Update(ctx, bob))

		n, err = roles.CountHolders(ctx, acme.ID(), member.ID())
		require.NoError(t, err)
		assert.Zero(t, n)
		n, err = users.CountActiveByTenant(ctx, acme.ID())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("grant update persists", func(t *testing.T) {
		grants := []permission.Grant{{Resource: "reports", Actions: []permission.Action{permission.ActionManage}}}
		require.NoError(t, member.ReplaceGrants(grants, 0))
		require.NoError(t, roles.Update(ctx, member))

		found, err := roles.GetBySlug(ctx, acme.ID(), "member")
		require.NoError(t, err)
		assert.True(t, found.Can("reports", permission.ActionDelete))
		assert.False(t, found.Can("expenses", permission.ActionRead))
	})
}

func TestTenantDeletionRepository(t *testing.T) {
	repo := NewTenantDeletionRepository(setupTestDB(t), logger.NewNopLogger())
	ctx := context.Background()

	for i, slug := range []string{"old", "new"} {
		require.NoError(t, repo.Create(ctx, &tenant.Deletion{
			TenantSID: "tnt_" + slug, Slug: slug, Name: slug, PlanSlug: "free",
			DeletedBy: 1, DeletedByName: "Ops", DeletedAt: testNow.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Slug)
}

func TestUsageSource(t *testing.T) {
	gdb := setupTestDB(t)
	require.NoError(t, gdb.Exec("CREATE TABLE expenses (id INTEGER PRIMARY KEY, tenant_id INTEGER, created_at DATETIME)").Error)
	require.NoError(t, gdb.Exec("CREATE TABLE attachments (id INTEGER PRIMARY KEY, tenant_id INTEGER, size_bytes INTEGER)").Error)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	for _, at := range []time.Time{from.Add(time.Hour), to.Add(-time.Hour), to.Add(time.Hour)} {
		require.NoError(t, gdb.Exec("INSERT INTO expenses (tenant_id, created_at) VALUES (?, ?)", 1, at).Error)
	}
	require.NoError(t, gdb.Exec("INSERT INTO attachments (tenant_id, size_bytes) VALUES (1, 100), (1, 250), (2, 999)").Error)

	src, err := NewUsageSource(gdb, config.UsageSourceConfig{
		RecordsTable: "expenses", RecordsDateColumn: "created_at",
		StorageTable: "attachments", StorageSizeColumn: "size_bytes",
	})
	require.NoError(t, err)
	ctx := context.Background()

	n, err := src.CountRecords(ctx, 1, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	size, err := src.SumStorageBytes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(350), size)

	size, err = src.SumStorageBytes(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, size)

	t.Run("unconfigured or missing tables count zero", func(t *testing.T) {
		empty, err := NewUsageSource(gdb, config.UsageSourceConfig{RecordsTable: "receipts"})
		require.NoError(t, err)
		n, err := empty.CountRecords(ctx, 1, from, to)
		require.NoError(t, err)
		assert.Zero(t, n)
		size, err := empty.SumStorageBytes(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, size)
	})

	t.Run("rejects unsafe identifiers", func(t *testing.T) {
		_, err := NewUsageSource(gdb, config.UsageSourceConfig{StorageSizeColumn: "size) FROM users --"})
		assert.Error(t, err)
	})
}
