package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/shared/logger"
)

type countingReconciler struct{ runs atomic.Int32 }

func (r *countingReconciler) RecalculateAll(context.Context) (int, int, error) {
	r.runs.Add(1)
	return 3, 0, nil
}

type countingSweeper struct{ runs atomic.Int32 }

func (s *countingSweeper) Execute(context.Context) (int64, error) {
	s.runs.Add(1)
	return 0, nil
}

type countingReloader struct{ runs atomic.Int32 }

func (r *countingReloader) Reload() error {
	r.runs.Add(1)
	return nil
}

func TestSchedulerManager_RegistersJobs(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, m.RegisterRetentionSweep("30 3 * * *", &countingSweeper{}))
	require.NoError(t, m.RegisterUsageReconcile(time.Hour, &countingReconciler{}))
	require.NoError(t, m.RegisterPolicyReload(time.Minute, &countingReloader{}))

	names := make([]string, 0, 3)
	for _, j := range m.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"activity-retention-sweep", "usage-reconcile", "operator-policy-reload"}, names)
}

func TestSchedulerManager_RejectsBadCron(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)
	assert.Error(t, m.RegisterRetentionSweep("not a cron", &countingSweeper{}))
}

func TestSchedulerManager_ReconcileStartsImmediately(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	rec := &countingReconciler{}
	require.NoError(t, m.RegisterUsageReconcile(time.Hour, rec))
	m.Start()
	assert.True(t, m.IsStarted())

	assert.Eventually(t, func() bool { return rec.runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	assert.NoError(t, m.Stop(), "stop is idempotent")
}
