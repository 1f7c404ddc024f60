package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/subscription/dto"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type memPlans struct {
	bySlug    map[string]*subscription.Plan
	updateErr error
}

func newMemPlans() *memPlans {
	return &memPlans{bySlug: make(map[string]*subscription.Plan)}
}

func (m *memPlans) Create(_ context.Context, p *subscription.Plan) error {
	if err := p.SetID(uint(len(m.bySlug) + 1)); err != nil {
		return err
	}
	m.bySlug[p.Slug()] = p
	return nil
}

func (m *memPlans) Update(_ context.Context, p *subscription.Plan) error {
	if m.updateErr != nil {
		return m.updateErr
	}
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

type planTenants struct {
	tenant.Repository
	onPlan  map[string][]uint
	applied map[string]tenant.Settings
}

func (p *planTenants) ApplyPlanSettings(_ context.Context, slug string, s tenant.Settings) ([]uint, error) {
	if p.applied == nil {
		p.applied = make(map[string]tenant.Settings)
	}
	p.applied[slug] = s
	return p.onPlan[slug], nil
}

type directTx struct{}

func (directTx) RunInTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingInvalidator struct{ ids []uint }

func (r *recordingInvalidator) InvalidateIDs(_ context.Context, ids []uint) {
	r.ids = append(r.ids, ids...)
}

type recordingAuditor struct{ entries []appactivity.Entry }

func (a *recordingAuditor) Record(_ context.Context, e appactivity.Entry) {
	a.entries = append(a.entries, e)
}

const catalogYAML = `
plans:
  - slug: free
    name: Free
    max_users: 5
    max_records: 100
    max_storage_bytes: 104857600
    trial_days: 14
  - slug: pro
    name: Pro
    max_users: 50
    max_records: -1
    max_storage_bytes: 10737418240
    features: [api_access, custom_domain, advanced_reports]
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	require.Len(t, c.Plans, 2)
	assert.Equal(t, int64(tenant.Unlimited), c.Plans[1].MaxRecords)
	assert.Equal(t, 14, c.Plans[0].TrialDays)

	_, err = ParseCatalog(strings.NewReader("plans:\n  - slug: free\n    colour: red\n"))
	assert.Error(t, err)

	_, err = ParseCatalog(strings.NewReader("plans:\n  - slug: free\n    name: A\n  - slug: free\n    name: B\n"))
	assert.ErrorContains(t, err, "listed twice")

	empty, err := ParseCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Plans)
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	plans := newMemPlans()
	uc := NewSeedCatalogUseCase(plans, logger.NewNopLogger())
	c, err := ParseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	created, err := uc.Execute(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	pro := plans.bySlug["pro"]
	require.NotNil(t, pro)
	assert.True(t, pro.Settings().HasFeature("custom_domain"))

	require.NoError(t, pro.Revise("Pro", 75, -1, 1, nil))
	created, err = uc.Execute(context.Background(), c)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, int64(75), plans.bySlug["pro"].MaxUsers(), "existing plans are not overwritten")
}

func TestSeedCatalogRejectsInvalidPlan(t *testing.T) {
	uc := NewSeedCatalogUseCase(newMemPlans(), logger.NewNopLogger())
	_, err := uc.Execute(context.Background(), &dto.Catalog{Plans: []dto.CatalogEntry{{Slug: "bad", Name: "Bad", MaxUsers: -5}}})
	assert.Error(t, err)
}

func seededPlans(t *testing.T) *memPlans {
	t.Helper()
	plans := newMemPlans()
	p, err := subscription.NewPlan("free", "Free", 5, 100, 1<<20, nil, 14)
	require.NoError(t, err)
	require.NoError(t, plans.Create(context.Background(), p))
	return plans
}

func TestUpdatePlanFansOut(t *testing.T) {
	plans := seededPlans(t)
	tenants := &planTenants{onPlan: map[string][]uint{"free": {3, 8, 13}}}
	inv := &recordingInvalidator{}
	audit := &recordingAuditor{}
	uc := NewUpdatePlanUseCase(plans, tenants, directTx{}, inv, audit, logger.NewNopLogger())
	actor := &tenancy.Principal{UserID: 1, Name: "Ops", Operator: true}

	resp, err := uc.Execute(context.Background(), actor, "free", dto.UpdatePlanRequest{
		Name: "Free", MaxUsers: 10, MaxRecords: 100, MaxStorageBytes: 1 << 20, Features: []string{"exports"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TenantsAffected)
	assert.Equal(t, int64(10), resp.Plan.MaxUsers)

	applied := tenants.applied["free"]
	assert.Equal(t, int64(10), applied.MaxUsers)
	assert.True(t, applied.HasFeature("exports"))
	assert.Equal(t, []uint{3, 8, 13}, inv.ids)

	require.Len(t, audit.entries, 3)
	for i, e := range audit.entries {
		assert.Equal(t, []uint{3, 8, 13}[i], e.TenantID)
		assert.Equal(t, "plan_updated", e.Kind.Code())
		assert.Equal(t, uint(1), e.ActorID)
	}
	fields := make([]string, 0)
	for _, c := range audit.entries[0].Metadata.Changes {
		fields = append(fields, c.Field)
	}
	assert.ElementsMatch(t, []string{"max_users", "features"}, fields)
}

func TestUpdatePlanErrors(t *testing.T) {
	plans := seededPlans(t)
	inv := &recordingInvalidator{}
	audit := &recordingAuditor{}
	uc := NewUpdatePlanUseCase(plans, &planTenants{}, directTx{}, inv, audit, logger.NewNopLogger())
	ctx := context.Background()

	_, err := uc.Execute(ctx, nil, "missing", dto.UpdatePlanRequest{Name: "X"})
	assert.True(t, errors.IsNotFoundError(err))

	_, err = uc.Execute(ctx, nil, "free", dto.UpdatePlanRequest{Name: "Free", MaxUsers: -3})
	assert.True(t, errors.IsValidationError(err))

	plans.updateErr = assert.AnError
	_, err = uc.Execute(ctx, nil, "free", dto.UpdatePlanRequest{Name: "Free", MaxUsers: 1})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, inv.ids)
	assert.Empty(t, audit.entries)
}

func TestListPlansSorted(t *testing.T) {
	plans := newMemPlans()
	for _, slug := range []string{"pro", "business", "free"} {
		p, err := subscription.NewPlan(slug, slug, 1, 1, 1, nil, 0)
		require.NoError(t, err)
		require.NoError(t, plans.Create(context.Background(), p))
	}

	out, err := NewListPlansUseCase(plans, logger.NewNopLogger()).Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "business", out[0].Slug)
	assert.Equal(t, "free", out[1].Slug)
	assert.Equal(t, []string{}, out[0].Features)

	_, err = NewGetPlanUseCase(plans, logger.NewNopLogger()).Execute(context.Background(), "nope")
	assert.True(t, errors.IsNotFoundError(err))
}
