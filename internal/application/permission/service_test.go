package permission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type memRoles struct {
	roles   map[string]*permission.Role
	holders map[uint]int64
	updated int
}

func (m *memRoles) Create(_ context.Context, r *permission.Role) error { return nil }
func (m *memRoles) Update(_ context.Context, r *permission.Role) error {
	m.updated++
	return nil
}
func (m *memRoles) GetByID(context.Context, uint, uint) (*permission.Role, error) { return nil, nil }
func (m *memRoles) GetBySlug(_ context.Context, tenantID uint, slug string) (*permission.Role, error) {
	r := m.roles[slug]
	if r == nil || r.TenantID() != tenantID {
		return nil, nil
	}
	return r, nil
}
func (m *memRoles) ListByTenant(context.Context, uint) ([]*permission.Role, error) {
	return []*permission.Role{m.roles["admin"], m.roles["auditor"]}, nil
}
func (m *memRoles) CountHolders(_ context.Context, _ uint, roleID uint) (int64, error) {
	return m.holders[roleID], nil
}

type recordingAuditor struct{ entries []appactivity.Entry }

func (a *recordingAuditor) Record(_ context.Context, e appactivity.Entry) {
	a.entries = append(a.entries, e)
}

func newRole(t *testing.T, id uint, slug string, system, admin bool, grants ...permission.Grant) *permission.Role {
	t.Helper()
	r, err := permission.NewRole("rol_"+slug, 1, slug, slug, system, admin, grants)
	require.NoError(t, err)
	require.NoError(t, r.SetID(id))
	return r
}

func newFixture(t *testing.T) (*Service, *memRoles, *recordingAuditor) {
	repo := &memRoles{
		roles: map[string]*permission.Role{
			"admin":   newRole(t, 1, "admin", true, true),
			"member":  newRole(t, 2, "member", true, false),
			"auditor": newRole(t, 3, "auditor", false, false, permission.Grant{Resource: "expenses", Actions: []permission.Action{permission.ActionRead}}),
		},
		holders: map[uint]int64{2: 4, 3: 2},
	}
	audit := &recordingAuditor{}
	return NewService(repo, audit, logger.NewNopLogger()), repo, audit
}

func TestUpdateGrants(t *testing.T) {
	svc, repo, audit := newFixture(t)
	actor := &tenancy.Principal{UserID: 7, Name: "Admin", TenantID: 1}

	resp, err := svc.UpdateGrants(context.Background(), actor, 1, "auditor", UpdateGrantsRequest{
		Grants: []permission.Grant{{Resource: "expenses", Actions: []permission.Action{permission.ActionRead, permission.ActionExport}}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Grants, 1)
	assert.Len(t, resp.Grants[0].Actions, 2)
	assert.True(t, repo.roles["auditor"].Can("expenses", permission.ActionExport))
	assert.Equal(t, 1, repo.updated)

	require.Len(t, audit.entries, 1)
	e := audit.entries[0]
	assert.Equal(t, "role_updated", e.Kind.Code())
	assert.Equal(t, uint(7), e.ActorID)
	require.Len(t, e.Metadata.Changes, 1)
	assert.Equal(t, "expenses", e.Metadata.Changes[0].Field)
}

func TestUpdateGrantsRejects(t *testing.T) {
	tests := []struct {
		name   string
		slug   string
		grants []permission.Grant
		check  func(error) bool
	}{
		{"unknown role", "owner", nil, errors.IsNotFoundError},
		{"tenant admin", "admin", nil, errors.IsValidationError},
		{"held system role", "member", nil, errors.IsConflictError},
		{"unknown action", "auditor", []permission.Grant{{Resource: "expenses", Actions: []permission.Action{"fly"}}}, errors.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, audit := newFixture(t)
			_, err := svc.UpdateGrants(context.Background(), nil, 1, tt.slug, UpdateGrantsRequest{Grants: tt.grants})
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Zero(t, repo.updated)
			assert.Empty(t, audit.entries)
		})
	}
}

func TestListRoles(t *testing.T) {
	svc, _, _ := newFixture(t)
	roles, err := svc.ListRoles(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.True(t, roles[0].IsTenantAdmin)
	assert.Equal(t, []permission.Grant{}, roles[0].Grants)
}
