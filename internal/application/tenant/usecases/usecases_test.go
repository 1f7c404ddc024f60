package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/shared/services"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

var operator = &tenancy.Principal{UserID: 900, Name: "Ops", Operator: true, OperatorRole: "superadmin"}

type provisionFixture struct {
	uc      *ProvisionTenantUseCase
	tenants *memTenants
	usage   *memUsage
	roles   *memRoles
	users   *memUsers
	quota   *fakeQuota
	audit   *recordingAuditor
}

func newProvisionFixture(t *testing.T) *provisionFixture {
	f := &provisionFixture{
		tenants: newMemTenants(),
		usage:   newMemUsage(),
		roles:   &memRoles{},
		users:   &memUsers{},
		quota:   &fakeQuota{},
		audit:   &recordingAuditor{},
	}
	plans := newMemPlans(t, testPlan(t, "free", 5, 14), testPlan(t, "pro", 50, 0, "api_access"))
	f.uc = NewProvisionTenantUseCase(
		f.tenants, f.usage, plans, f.roles, f.users, plainHasher{}, f.quota, &directTx{}, f.audit,
		ProvisionRules{ReservedSlugs: []string{"www", "admin", "api"}, DefaultPlan: "free"},
		logger.NewNopLogger(),
	)
	f.uc.now = fixedClock
	return f
}

func provisionRequest() dto.ProvisionTenantRequest {
	return dto.ProvisionTenantRequest{
		Name:          "Acme Corp",
		AdminEmail:    "owner@acme.test",
		AdminName:     "Owner",
		AdminPassword: "s3cret-pass",
	}
}

func TestProvisionTenant(t *testing.T) {
	f := newProvisionFixture(t)

	resp, err := f.uc.Execute(context.Background(), operator, provisionRequest())
	require.NoError(t, err)

	assert.Equal(t, "acme-corp", resp.Tenant.Slug)
	assert.Equal(t, "free", resp.Tenant.Plan)
	assert.Equal(t, string(tenant.StatusTrial), resp.Tenant.Status)
	require.NotNil(t, resp.Tenant.TrialEndDate)
	assert.Equal(t, testNow.AddDate(0, 0, 14), *resp.Tenant.TrialEndDate)
	assert.Equal(t, int64(5), resp.Tenant.Settings.MaxUsers)
	assert.Equal(t, "owner@acme.test", resp.Admin.Email)

	require.Len(t, f.roles.roles, 3)
	require.Len(t, f.users.users, 1)
	admin := f.users.users[0]
	require.NotNil(t, admin.RoleID())
	for _, r := range f.roles.roles {
		if r.ID() == *admin.RoleID() {
			assert.True(t, r.IsTenantAdmin())
		}
	}

	tid := f.tenants.byID[1].ID()
	_, initialized := f.usage.rows[tid]
	assert.True(t, initialized)
	assert.Equal(t, []admission{{tid, tenant.ResourceUsers, 1}}, f.quota.calls)
	assert.Equal(t, []string{"tenant_created", "user_created"}, f.audit.kinds())
	assert.Equal(t, uint(900), f.audit.entries[0].ActorID)
}

func TestProvisionTenantOptions(t *testing.T) {
	f := newProvisionFixture(t)
	req := provisionRequest()
	req.Slug = "acme"
	req.Plan = "pro"
	zero := 0
	req.TrialDays = &zero

	resp, err := f.uc.Execute(context.Background(), operator, req)
	require.NoError(t, err)
	assert.Equal(t, "acme", resp.Tenant.Slug)
	assert.Equal(t, string(tenant.StatusActive), resp.Tenant.Status)
	assert.Nil(t, resp.Tenant.TrialEndDate)
	assert.Equal(t, []string{"api_access"}, resp.Tenant.Settings.Features)
}

func TestProvisionTenantRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.ProvisionTenantRequest)
		check  func(error) bool
	}{
		{"reserved slug", func(r *dto.ProvisionTenantRequest) { r.Slug = "admin" }, errors.IsValidationError},
		{"malformed slug", func(r *dto.ProvisionTenantRequest) { r.Slug = "Bad Slug" }, errors.IsValidationError},
		{"underivable slug", func(r *dto.ProvisionTenantRequest) { r.Name = "!!!" }, errors.IsValidationError},
		{"unknown plan", func(r *dto.ProvisionTenantRequest) { r.Plan = "platinum" }, errors.IsNotFoundError},
		{"taken slug", func(r *dto.ProvisionTenantRequest) { r.Slug = "taken" }, errors.IsConflictError},
		{"taken email", func(r *dto.ProvisionTenantRequest) { r.AdminEmail = "owner@taken.test" }, errors.IsConflictError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProvisionFixture(t)
			req := provisionRequest()
			req.Slug = "taken"
			req.AdminEmail = "owner@taken.test"
			_, err := f.uc.Execute(context.Background(), operator, req)
			require.NoError(t, err)
			f.audit.entries = nil

			req = provisionRequest()
			tt.mutate(&req)
			_, err = f.uc.Execute(context.Background(), operator, req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Empty(t, f.audit.entries)
		})
	}
}

func TestProvisionTenantQuotaRejectionIsReturned(t *testing.T) {
	f := newProvisionFixture(t)
	f.quota.reject = true

	_, err := f.uc.Execute(context.Background(), operator, provisionRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUserLimitExceeded))
	assert.Empty(t, f.audit.entries)
}

func newStatusUseCase(tenants *memTenants) (*ChangeTenantStatusUseCase, *recordingCache, *recordingAuditor) {
	cache := &recordingCache{}
	audit := &recordingAuditor{}
	uc := NewChangeTenantStatusUseCase(tenants, cache, audit, logger.NewNopLogger())
	uc.now = fixedClock
	return uc, cache, audit
}

func TestChangeTenantStatus(t *testing.T) {
	tenants := newMemTenants()
	tn := tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	uc, cache, audit := newStatusUseCase(tenants)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, operator, "tnt_a", StatusActionSuspend)
	require.NoError(t, err)
	assert.Equal(t, "suspended", resp.Status)
	require.Len(t, cache.calls, 1)
	assert.Equal(t, tn.ID(), cache.calls[0].tenantID)

	require.Len(t, audit.entries, 1)
	e := audit.entries[0]
	assert.Equal(t, "tenant_suspended", e.Kind.Code())
	require.Len(t, e.Metadata.Changes, 1)
	assert.Equal(t, "active", e.Metadata.Changes[0].Old)
	assert.Equal(t, "suspended", e.Metadata.Changes[0].New)

	resp, err = uc.Execute(ctx, operator, "tnt_a", StatusActionUnsuspend)
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, []string{"tenant_suspended", "tenant_unsuspended"}, audit.kinds())
}

func TestChangeTenantStatusRejects(t *testing.T) {
	tenants := newMemTenants()
	tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	uc, cache, audit := newStatusUseCase(tenants)

	_, err := uc.Execute(context.Background(), operator, "tnt_a", StatusActionUnsuspend)
	assert.True(t, errors.IsValidationError(err))

	_, err = uc.Execute(context.Background(), operator, "tnt_missing", StatusActionSuspend)
	assert.True(t, errors.IsNotFoundError(err))

	assert.Empty(t, cache.calls)
	assert.Empty(t, audit.entries)
}

func TestExtendTrial(t *testing.T) {
	tenants := newMemTenants()
	tn, err := tenant.NewTenant("tnt_t", "Trial Org", "trial-org", "free", tenant.NewSettings(5, 100, 1<<20, nil), 14, testNow)
	require.NoError(t, err)
	tenants.put(t, tn)

	cache := &recordingCache{}
	audit := &recordingAuditor{}
	uc := NewExtendTrialUseCase(tenants, cache, audit, logger.NewNopLogger())
	uc.now = fixedClock

	resp, err := uc.Execute(context.Background(), operator, "tnt_t", dto.ExtendTrialRequest{Days: 7})
	require.NoError(t, err)
	require.NotNil(t, resp.TrialEndDate)
	assert.Equal(t, testNow.AddDate(0, 0, 21), *resp.TrialEndDate)
	assert.Equal(t, []string{"trial_extended"}, audit.kinds())
	assert.Len(t, cache.calls, 1)

	tenants.put(t, activeTenant(t, "tnt_p", "paid"))
	_, err = uc.Execute(context.Background(), operator, "tnt_p", dto.ExtendTrialRequest{Days: 7})
	assert.True(t, errors.IsValidationError(err))
}

type fixedTokens struct{ token string }

func (f fixedTokens) GenerateDomainToken() (string, error) { return f.token, nil }

var _ services.TokenGenerator = fixedTokens{}

func TestCustomDomainLifecycle(t *testing.T) {
	tenants := newMemTenants()
	tn := tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	cache := &recordingCache{}
	audit := &recordingAuditor{}
	uc := NewCustomDomainUseCase(tenants, fixedTokens{"tok-1"}, cache, audit, logger.NewNopLogger())
	uc.now = fixedClock
	ctx := context.Background()

	set, err := uc.Set(ctx, nil, tn.ID(), dto.SetCustomDomainRequest{Domain: "Books.Alpha.COM."})
	require.NoError(t, err)
	assert.Equal(t, "books.alpha.com", set.Domain)
	assert.False(t, set.Verified)
	assert.Equal(t, "tok-1", set.VerifyToken)
	assert.Equal(t, "_spendwise-verify.books.alpha.com", set.TXTRecord)

	_, err = uc.Verify(ctx, nil, tn.ID(), dto.VerifyCustomDomainRequest{Token: "wrong"})
	assert.True(t, errors.IsValidationError(err))
	assert.False(t, tn.DomainVerified())

	verified, err := uc.Verify(ctx, nil, tn.ID(), dto.VerifyCustomDomainRequest{Token: "tok-1"})
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	found, err := tenants.GetByVerifiedDomain(ctx, "books.alpha.com")
	require.NoError(t, err)
	assert.Equal(t, tn, found)

	require.NoError(t, uc.Remove(ctx, nil, tn.ID()))
	assert.Nil(t, tn.CustomDomain())

	last := cache.calls[len(cache.calls)-1]
	assert.Equal(t, []string{"books.alpha.com"}, last.previous)
	assert.Equal(t, []string{"custom_domain_set", "custom_domain_verified", "custom_domain_removed"}, audit.kinds())
	assert.Zero(t, audit.entries[0].ActorID)
}

func TestCustomDomainInUse(t *testing.T) {
	tenants := newMemTenants()
	a := tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	b := tenants.put(t, activeTenant(t, "tnt_b", "beta"))
	uc := NewCustomDomainUseCase(tenants, fixedTokens{"tok"}, &recordingCache{}, &recordingAuditor{}, logger.NewNopLogger())
	ctx := context.Background()

	_, err := uc.Set(ctx, nil, a.ID(), dto.SetCustomDomainRequest{Domain: "shared.example.org"})
	require.NoError(t, err)

	_, err = uc.Set(ctx, nil, b.ID(), dto.SetCustomDomainRequest{Domain: "shared.example.org"})
	assert.True(t, errors.IsConflictError(err))

	_, err = uc.Set(ctx, nil, 999, dto.SetCustomDomainRequest{Domain: "other.example.org"})
	assert.True(t, errors.HasCode(err, errors.CodeTenantNotFound))
}

func TestChangeTenantPlan(t *testing.T) {
	tenants := newMemTenants()
	tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	plans := newMemPlans(t, testPlan(t, "free", 5, 0), testPlan(t, "pro", -1, 0, "api_access"))
	inactive := testPlan(t, "legacy", 10, 0)
	inactive.Deactivate()
	plans.bySlug["legacy"] = inactive

	cache := &recordingCache{}
	audit := &recordingAuditor{}
	uc := NewChangeTenantPlanUseCase(tenants, plans, cache, audit, logger.NewNopLogger())
	uc.now = fixedClock
	ctx := context.Background()

	resp, err := uc.Execute(ctx, operator, "tnt_a", dto.ChangePlanRequest{Plan: "pro"})
	require.NoError(t, err)
	assert.Equal(t, "pro", resp.Plan)
	assert.Equal(t, tenant.Unlimited, resp.Settings.MaxUsers)
	assert.Len(t, cache.calls, 1)

	require.Len(t, audit.entries, 1)
	changed := map[string]bool{}
	for _, c := range audit.entries[0].Metadata.Changes {
		changed[c.Field] = true
	}
	assert.True(t, changed["plan"])
	assert.True(t, changed["max_users"])
	assert.True(t, changed["features"])
	assert.False(t, changed["max_records"])

	_, err = uc.Execute(ctx, operator, "tnt_a", dto.ChangePlanRequest{Plan: "legacy"})
	assert.True(t, errors.IsValidationError(err))
	_, err = uc.Execute(ctx, operator, "tnt_a", dto.ChangePlanRequest{Plan: "nope"})
	assert.True(t, errors.IsNotFoundError(err))
}

func TestDeleteTenant(t *testing.T) {
	tenants := newMemTenants()
	tn := tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	deletions := &memDeletions{}
	cache := &recordingCache{}
	tx := &directTx{}
	uc := NewDeleteTenantUseCase(tenants, deletions, tx, cache, logger.NewNopLogger())
	uc.now = fixedClock
	ctx := context.Background()

	err := uc.Execute(ctx, operator, "tnt_a", dto.DeleteTenantRequest{ConfirmSlug: "beta"})
	assert.True(t, errors.IsValidationError(err))
	assert.Empty(t, tenants.deleted)

	require.NoError(t, uc.Execute(ctx, operator, "tnt_a", dto.DeleteTenantRequest{ConfirmSlug: "alpha", Reason: "churned"}))
	assert.Equal(t, []uint{tn.ID()}, tenants.deleted)
	assert.Equal(t, 1, tx.runs)
	require.Len(t, deletions.records, 1)
	rec := deletions.records[0]
	assert.Equal(t, "tnt_a", rec.TenantSID)
	assert.Equal(t, uint(900), rec.DeletedBy)
	assert.Equal(t, "churned", rec.Reason)
	assert.Equal(t, testNow, rec.DeletedAt)
	assert.Len(t, cache.calls, 1)

	err = uc.Execute(ctx, operator, "tnt_a", dto.DeleteTenantRequest{ConfirmSlug: "alpha"})
	assert.True(t, errors.IsNotFoundError(err))
}

func TestDeleteTenantKeepsDataWhenLogFails(t *testing.T) {
	tenants := newMemTenants()
	tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	cache := &recordingCache{}
	uc := NewDeleteTenantUseCase(tenants, &memDeletions{err: assert.AnError}, &directTx{}, cache, logger.NewNopLogger())

	err := uc.Execute(context.Background(), operator, "tnt_a", dto.DeleteTenantRequest{ConfirmSlug: "alpha"})
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, tenants.deleted)
	assert.Empty(t, cache.calls)
}

func TestListTenantsClampsPaging(t *testing.T) {
	tenants := newMemTenants()
	tenants.put(t, activeTenant(t, "tnt_a", "alpha"))
	uc := NewListTenantsUseCase(tenants, logger.NewNopLogger())

	resp, err := uc.Execute(context.Background(), dto.ListTenantsRequest{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, maxPageSize, resp.PageSize)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Tenants, 1)
	assert.Equal(t, "alpha", resp.Tenants[0].Slug)
}

func TestUsageRecalculate(t *testing.T) {
	tn := activeTenant(t, "tnt_a", "alpha")
	require.NoError(t, tn.SetID(7))
	usage := newMemUsage()
	usage.rows[7] = tenant.Usage{Users: 9, Records: 40, RecordsPeriod: 202602}
	usage.recounted = tenant.Usage{Users: 3, Records: 12, RecordsPeriod: 202603, StorageBytes: 2048}
	audit := &recordingAuditor{}
	uc := NewUsageUseCase(usage, usage, audit, logger.NewNopLogger())
	uc.now = fixedClock
	ctx := context.Background()

	before, err := uc.Get(ctx, tn)
	require.NoError(t, err)
	assert.Equal(t, int64(9), before.Users.Used)
	assert.Equal(t, int64(0), before.Records.Used, "records from an earlier period read as zero")
	assert.Equal(t, 202603, before.RecordsPeriod)

	after, err := uc.Recalculate(ctx, operator, tn)
	require.NoError(t, err)
	assert.Equal(t, int64(3), after.Users.Used)
	assert.Equal(t, int64(12), after.Records.Used)
	assert.Equal(t, int64(2048), after.Storage.Used)
	require.NotNil(t, after.LastRecalculatedAt)
	assert.WithinDuration(t, testNow, *after.LastRecalculatedAt, time.Second)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "usage_recalculated", audit.entries[0].Kind.Code())
	assert.NotEmpty(t, audit.entries[0].Metadata.Changes)
}
