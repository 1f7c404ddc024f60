package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/application/activity/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/services/markdown"
)

type recordingRepo struct {
	items []*activity.Activity

	gotScopes  []activity.Visibility
	gotLimit   int
	gotExclude uint
	gotSIDs    []string
	gotCutoff  time.Time
}

func (r *recordingRepo) Create(context.Context, *activity.Activity) (bool, error) { return true, nil }

func (r *recordingRepo) ListRecent(_ context.Context, _ uint, scopes []activity.Visibility, limit int) ([]*activity.Activity, error) {
	r.gotScopes, r.gotLimit = scopes, limit
	return r.items, nil
}

func (r *recordingRepo) CountUnread(_ context.Context, _ uint, scopes []activity.Visibility, exclude uint) (int64, error) {
	r.gotScopes, r.gotExclude = scopes, exclude
	return 3, nil
}

func (r *recordingRepo) MarkAsRead(_ context.Context, _ uint, scopes []activity.Visibility, sids []string) (int64, error) {
	r.gotScopes, r.gotSIDs = scopes, sids
	return int64(len(sids)), nil
}

func (r *recordingRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.gotCutoff = cutoff
	return 12, nil
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(0))
	assert.Equal(t, 20, ClampLimit(-5))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, 50, ClampLimit(50))
	assert.Equal(t, 100, ClampLimit(500))
}

func TestListRecentScopesByViewer(t *testing.T) {
	now := time.Now()
	a, err := activity.NewActivity("act_1", 1, activity.KindExpenseCreated,
		activity.EntityRef{Type: "expense", ID: "exp_1", Name: "Lunch"}, 7, "Jane",
		activity.Metadata{}, "", "", "k1", now)
	require.NoError(t, err)

	repo := &recordingRepo{items: []*activity.Activity{a}}
	uc := NewListRecentActivitiesUseCase(repo, markdown.NewMarkdownService(), logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), 1, activity.Viewer{UserID: 7}, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.gotLimit)
	assert.Equal(t, []activity.Visibility{activity.VisibilityPublic}, repo.gotScopes)
	require.Len(t, out, 1)
	assert.Equal(t, "act_1", out[0].ID)
	assert.Contains(t, out[0].DescriptionHTML, "<strong>Jane</strong>")

	_, err = uc.Execute(context.Background(), 1, activity.Viewer{UserID: 7, IsTenantAdmin: true}, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.gotLimit)
	assert.ElementsMatch(t, []activity.Visibility{activity.VisibilityPublic, activity.VisibilityAdminOnly}, repo.gotScopes)
}

func TestUnreadCountExcludesViewer(t *testing.T) {
	repo := &recordingRepo{}
	uc := NewGetUnreadCountUseCase(repo, logger.NewNopLogger())

	resp, err := uc.Execute(context.Background(), 1, activity.Viewer{UserID: 9, IsOperator: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Count)
	assert.Equal(t, uint(9), repo.gotExclude)
	assert.Len(t, repo.gotScopes, 3)
}

func TestMarkAsRead(t *testing.T) {
	repo := &recordingRepo{}
	uc := NewMarkAsReadUseCase(repo, logger.NewNopLogger())

	resp, err := uc.Execute(context.Background(), 1, activity.Viewer{UserID: 7}, dto.MarkAsReadRequest{IDs: []string{"act_1", "act_2"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Updated)
	assert.Equal(t, []string{"act_1", "act_2"}, repo.gotSIDs)
	assert.Equal(t, []activity.Visibility{activity.VisibilityPublic}, repo.gotScopes)
}

func TestSweepUsesHorizon(t *testing.T) {
	repo := &recordingRepo{}
	uc := NewSweepActivitiesUseCase(repo, 180*24*time.Hour, logger.NewNopLogger())
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	deleted, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	assert.Equal(t, now.AddDate(0, 0, -180), repo.gotCutoff)
}
