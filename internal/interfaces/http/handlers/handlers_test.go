package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	activitydto "github.com/spendwise/spendwise/internal/application/activity/dto"
	apppermission "github.com/spendwise/spendwise/internal/application/permission"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	tenantdto "github.com/spendwise/spendwise/internal/application/tenant/dto"
	userdto "github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/interfaces/http/handlers/testutil"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// =====================================================================
// Mock services
// =====================================================================

type mockLoginService struct {
	hostTenant *tenant.Tenant
	resp       *userdto.LoginResponse
	err        error
}

func (m *mockLoginService) Login(_ context.Context, hostTenant *tenant.Tenant, _ userdto.LoginRequest) (*userdto.LoginResponse, error) {
	m.hostTenant = hostTenant
	return m.resp, m.err
}

type mockMemberService struct {
	created     *userdto.MemberResponse
	members     []*userdto.MemberResponse
	err         error
	gotTenant   *tenant.Tenant
	gotActor    *tenancy.Principal
	deactivated string
}

func (m *mockMemberService) CreateMember(_ context.Context, actor *tenancy.Principal, t *tenant.Tenant, _ userdto.CreateMemberRequest) (*userdto.MemberResponse, error) {
	m.gotActor, m.gotTenant = actor, t
	return m.created, m.err
}

func (m *mockMemberService) DeactivateMember(_ context.Context, actor *tenancy.Principal, t *tenant.Tenant, sid string) error {
	m.gotActor, m.gotTenant, m.deactivated = actor, t, sid
	return m.err
}

func (m *mockMemberService) ListMembers(context.Context, uint) ([]*userdto.MemberResponse, error) {
	return m.members, m.err
}

type mockActivityService struct {
	viewer   activity.Viewer
	limit    int
	tenantID uint
	markReq  activitydto.MarkAsReadRequest
}

func (m *mockActivityService) ListRecent(_ context.Context, tenantID uint, v activity.Viewer, limit int) ([]*activitydto.ActivityResponse, error) {
	m.tenantID, m.viewer, m.limit = tenantID, v, limit
	return []*activitydto.ActivityResponse{}, nil
}

func (m *mockActivityService) UnreadCount(_ context.Context, tenantID uint, v activity.Viewer) (*activitydto.UnreadCountResponse, error) {
	m.tenantID, m.viewer = tenantID, v
	return &activitydto.UnreadCountResponse{Count: 3}, nil
}

func (m *mockActivityService) MarkAsRead(_ context.Context, tenantID uint, v activity.Viewer, req activitydto.MarkAsReadRequest) (*activitydto.MarkAsReadResponse, error) {
	m.tenantID, m.viewer, m.markReq = tenantID, v, req
	return &activitydto.MarkAsReadResponse{Updated: int64(len(req.IDs))}, nil
}

type stubAdminChecker struct {
	admin bool
	err   error
}

func (s stubAdminChecker) IsTenantAdmin(context.Context, *tenancy.Principal) (bool, error) {
	return s.admin, s.err
}

type mockSelfService struct {
	usage    *tenantdto.UsageResponse
	domain   *tenantdto.CustomDomainResponse
	err      error
	tenantID uint
	removed  bool
}

func (m *mockSelfService) Usage(_ context.Context, t *tenant.Tenant) (*tenantdto.UsageResponse, error) {
	m.tenantID = t.ID()
	return m.usage, m.err
}

func (m *mockSelfService) SetCustomDomain(_ context.Context, _ *tenancy.Principal, tenantID uint, _ tenantdto.SetCustomDomainRequest) (*tenantdto.CustomDomainResponse, error) {
	m.tenantID = tenantID
	return m.domain, m.err
}

func (m *mockSelfService) VerifyCustomDomain(_ context.Context, _ *tenancy.Principal, tenantID uint, _ tenantdto.VerifyCustomDomainRequest) (*tenantdto.CustomDomainResponse, error) {
	m.tenantID = tenantID
	return m.domain, m.err
}

func (m *mockSelfService) RemoveCustomDomain(_ context.Context, _ *tenancy.Principal, tenantID uint) error {
	m.tenantID, m.removed = tenantID, true
	return m.err
}

type mockRoleService struct {
	slug     string
	tenantID uint
	req      apppermission.UpdateGrantsRequest
	err      error
}

func (m *mockRoleService) ListRoles(_ context.Context, tenantID uint) ([]*apppermission.RoleResponse, error) {
	m.tenantID = tenantID
	return []*apppermission.RoleResponse{{Slug: "admin", IsTenantAdmin: true}}, m.err
}

func (m *mockRoleService) UpdateGrants(_ context.Context, _ *tenancy.Principal, tenantID uint, slug string, req apppermission.UpdateGrantsRequest) (*apppermission.RoleResponse, error) {
	m.tenantID, m.slug, m.req = tenantID, slug, req
	if m.err != nil {
		return nil, m.err
	}
	return &apppermission.RoleResponse{Slug: slug, Grants: req.Grants}, nil
}

// =====================================================================
// AuthHandler
// =====================================================================

func TestAuthHandler_Login(t *testing.T) {
	t.Run("passes the host tenant to the service", func(t *testing.T) {
		host := testutil.NewTenant(t, 7, "acme")
		svc := &mockLoginService{resp: &userdto.LoginResponse{Token: "tok"}}
		h := NewAuthHandler(svc, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/login", userdto.LoginRequest{Email: "a@acme.test", Password: "secret-pass"})
		testutil.SetTenant(c, host)
		h.Login(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Same(t, host, svc.hostTenant)
		resp := testutil.MustParse(t, w)
		var body userdto.LoginResponse
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		assert.Equal(t, "tok", body.Token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		svc := &mockLoginService{err: errors.NewInvalidCredentialsError()}
		h := NewAuthHandler(svc, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/login", userdto.LoginRequest{Email: "a@acme.test", Password: "wrong"})
		h.Login(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, svc.hostTenant)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := NewAuthHandler(&mockLoginService{}, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email"})
		h.Login(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(errors.ErrorTypeValidation), testutil.MustParse(t, w).Error.Type)
	})
}

// =====================================================================
// MemberHandler
// =====================================================================

func TestMemberHandler_Create(t *testing.T) {
	tn := testutil.NewTenant(t, 7, "acme")
	actor := testutil.Member(7, 1)

	t.Run("created", func(t *testing.T) {
		svc := &mockMemberService{created: &userdto.MemberResponse{ID: "usr_new", Email: "new@acme.test"}}
		h := NewMemberHandler(svc, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/members", userdto.CreateMemberRequest{
			Email: "new@acme.test", Name: "New", Password: "long-enough",
		})
		testutil.SetPrincipal(c, actor)
		testutil.SetTenant(c, tn)
		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Same(t, tn, svc.gotTenant)
		assert.Same(t, actor, svc.gotActor)
	})

	t.Run("seat limit reached", func(t *testing.T) {
		svc := &mockMemberService{err: errors.NewLimitExceededError(errors.CodeUserLimitExceeded, "users", 10, 10, "business")}
		h := NewMemberHandler(svc, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/members", userdto.CreateMemberRequest{
			Email: "new@acme.test", Name: "New", Password: "long-enough",
		})
		testutil.SetPrincipal(c, actor)
		testutil.SetTenant(c, tn)
		h.Create(c)

		resp := testutil.MustParse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, string(errors.CodeUserLimitExceeded), resp.Error.Code)
	})
}

func TestMemberHandler_Deactivate(t *testing.T) {
	tn := testutil.NewTenant(t, 7, "acme")
	svc := &mockMemberService{}
	h := NewMemberHandler(svc, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodDelete, "/api/v1/members/usr_x", nil)
	testutil.SetURLParam(c, "id", "usr_x")
	testutil.SetPrincipal(c, testutil.Member(7, 1))
	testutil.SetTenant(c, tn)
	h.Deactivate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usr_x", svc.deactivated)
}

// =====================================================================
// ActivityHandler
// =====================================================================

func TestActivityHandler_ListDefaultsLimitAndViewer(t *testing.T) {
	tn := testutil.NewTenant(t, 7, "acme")
	svc := &mockActivityService{}
	h := NewActivityHandler(svc, stubAdminChecker{admin: true}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/activities", nil)
	testutil.SetPrincipal(c, testutil.Member(7, 2))
	testutil.SetTenant(c, tn)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, constants.DefaultActivityLimit, svc.limit)
	assert.Equal(t, uint(7), svc.tenantID)
	assert.True(t, svc.viewer.IsTenantAdmin)
	assert.False(t, svc.viewer.IsOperator)
}

func TestActivityHandler_ListRejectsOversizedLimit(t *testing.T) {
	h := NewActivityHandler(&mockActivityService{}, stubAdminChecker{}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/activities", nil)
	testutil.SetQueryParams(c, map[string]string{"limit": "1000"})
	testutil.SetTenant(c, testutil.NewTenant(t, 7, "acme"))
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivityHandler_OperatorSkipsRoleLookup(t *testing.T) {
	svc := &mockActivityService{}
	h := NewActivityHandler(svc, stubAdminChecker{err: assert.AnError}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/activities/unread-count", nil)
	testutil.SetPrincipal(c, testutil.Operator("support"))
	testutil.SetTenant(c, testutil.NewTenant(t, 7, "acme"))
	h.UnreadCount(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.viewer.IsOperator)
}

func TestActivityHandler_MarkAsRead(t *testing.T) {
	tn := testutil.NewTenant(t, 7, "acme")

	t.Run("empty body marks everything", func(t *testing.T) {
		svc := &mockActivityService{}
		h := NewActivityHandler(svc, stubAdminChecker{}, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/activities/read", nil)
		testutil.SetPrincipal(c, testutil.Member(7, 2))
		testutil.SetTenant(c, tn)
		h.MarkAsRead(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, svc.markReq.IDs)
	})

	t.Run("listed ids", func(t *testing.T) {
		svc := &mockActivityService{}
		h := NewActivityHandler(svc, stubAdminChecker{}, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/activities/read", activitydto.MarkAsReadRequest{IDs: []string{"act_1", "act_2"}})
		testutil.SetPrincipal(c, testutil.Member(7, 2))
		testutil.SetTenant(c, tn)
		h.MarkAsRead(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"act_1", "act_2"}, svc.markReq.IDs)
	})
}

// =====================================================================
// RoleHandler
// =====================================================================

func TestRoleHandler_UpdateGrants(t *testing.T) {
	tn := testutil.NewTenant(t, 7, "acme")

	t.Run("replaces grants of the named role", func(t *testing.T) {
		svc := &mockRoleService{}
		h := NewRoleHandler(svc, logger.NewNopLogger())

		grants := []permission.Grant{{Resource: permission.ResourceUsers, Actions: []permission.Action{permission.ActionRead}}}
		c, w := testutil.NewTestContext(http.MethodPut, "/api/v1/roles/viewer/grants", apppermission.UpdateGrantsRequest{Grants: grants})
		testutil.SetURLParam(c, "slug", "viewer")
		testutil.SetPrincipal(c, testutil.Member(7, 1))
		testutil.SetTenant(c, tn)
		h.UpdateGrants(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "viewer", svc.slug)
		assert.Equal(t, uint(7), svc.tenantID)
		assert.Equal(t, grants, svc.req.Grants)
	})

	t.Run("system role is rejected", func(t *testing.T) {
		svc := &mockRoleService{err: errors.NewForbiddenError("system roles cannot be edited")}
		h := NewRoleHandler(svc, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPut, "/api/v1/roles/admin/grants", apppermission.UpdateGrantsRequest{Grants: []permission.Grant{}})
		testutil.SetURLParam(c, "slug", "admin")
		testutil.SetTenant(c, tn)
		h.UpdateGrants(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// =====================================================================
// TenantHandler
// =====================================================================

func TestTenantHandler_Current(t *testing.T) {
	tn := testutil.NewTenant(t, 7, "acme", tenant.FeatureCustomDomain)
	h := NewTenantHandler(&mockSelfService{}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/tenant", nil)
	testutil.SetTenant(c, tn)
	h.Current(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body tenantdto.TenantResponse
	require.NoError(t, json.Unmarshal(testutil.MustParse(t, w).Data, &body))
	assert.Equal(t, "acme", body.Slug)
	assert.Equal(t, []string{tenant.FeatureCustomDomain}, body.Settings.Features)
}

func TestTenantHandler_CustomDomain(t *testing.T) {
	tn := testutil.NewTenant(t, 7, "acme", tenant.FeatureCustomDomain)

	t.Run("set", func(t *testing.T) {
		svc := &mockSelfService{domain: &tenantdto.CustomDomainResponse{Domain: "books.acme.com", VerifyToken: "tok"}}
		h := NewTenantHandler(svc, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPut, "/api/v1/tenant/domain", tenantdto.SetCustomDomainRequest{Domain: "books.acme.com"})
		testutil.SetPrincipal(c, testutil.Member(7, 1))
		testutil.SetTenant(c, tn)
		h.SetCustomDomain(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, uint(7), svc.tenantID)
	})

	t.Run("rejects a non-hostname", func(t *testing.T) {
		h := NewTenantHandler(&mockSelfService{}, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodPut, "/api/v1/tenant/domain", tenantdto.SetCustomDomainRequest{Domain: "not a domain"})
		testutil.SetTenant(c, tn)
		h.SetCustomDomain(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("remove", func(t *testing.T) {
		svc := &mockSelfService{}
		h := NewTenantHandler(svc, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodDelete, "/api/v1/tenant/domain", nil)
		testutil.SetPrincipal(c, testutil.Member(7, 1))
		testutil.SetTenant(c, tn)
		h.RemoveCustomDomain(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, svc.removed)
	})
}

// =====================================================================
// HealthHandler
// =====================================================================

func newHealthDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestHealthHandler_Check(t *testing.T) {
	t.Run("database only", func(t *testing.T) {
		h := NewHealthHandler(newHealthDB(t), nil, logger.NewNopLogger())

		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
		h.Check(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "redis")
	})

	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		mr.Close()

		h := NewHealthHandler(newHealthDB(t), client, logger.NewNopLogger())
		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
		h.Check(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body struct {
			Healthy bool              `json:"healthy"`
			Checks  map[string]string `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Healthy)
		assert.Equal(t, "unavailable", body.Checks["redis"])
		assert.Equal(t, "ok", body.Checks["database"])
	})
}
