// Package scheduler runs the tenancy maintenance jobs on gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// ActivitySweeper purges activity records past the retention horizon.
type ActivitySweeper interface {
	Execute(ctx context.Context) (int64, error)
}

// UsageReconciler recounts every tenant's usage counters.
type UsageReconciler interface {
	RecalculateAll(ctx context.Context) (processed, failed int, err error)
}

// PolicyReloader rereads shared authorization policy.
type PolicyReloader interface {
	Reload() error
}

// SchedulerManager owns the single gocron scheduler of a process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager initializes gocron in the business timezone, so cron
// expressions read as local business time.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}
	return &SchedulerManager{scheduler: scheduler, logger: log}, nil
}

// RegisterRetentionSweep runs the activity sweep on a cron schedule.
func (m *SchedulerManager) RegisterRetentionSweep(cron string, sweeper ActivitySweeper) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			m.sweepActivities(ctx, sweeper)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("activity", "retention"),
		gocron.WithName("activity-retention-sweep"),
	)
	if err != nil {
		return err
	}
	m.logger.Infow("registered activity retention sweep", "cron", cron)
	return nil
}

func (m *SchedulerManager) sweepActivities(ctx context.Context, sweeper ActivitySweeper) {
	start := biztime.NowUTC()
	deleted, err := sweeper.Execute(ctx)
	if err != nil {
		m.logger.Errorw("activity retention sweep failed", "error", err, "duration", time.Since(start))
		return
	}
	m.logger.Infow("activity retention sweep finished", "deleted", deleted, "duration", time.Since(start))
}

// RegisterUsageReconcile recounts usage every interval, starting immediately.
func (m *SchedulerManager) RegisterUsageReconcile(interval time.Duration, reconciler UsageReconciler) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.reconcileUsage(ctx, reconciler)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("quota", "reconcile"),
		gocron.WithName("usage-reconcile"),
	)
	if err != nil {
		return err
	}
	m.logger.Infow("registered usage reconcile", "interval", interval)
	return nil
}

func (m *SchedulerManager) reconcileUsage(ctx context.Context, reconciler UsageReconciler) {
	start := biztime.NowUTC()
	processed, failed, err := reconciler.RecalculateAll(ctx)
	if err != nil {
		m.logger.Errorw("usage reconcile failed", "error", err, "processed", processed, "failed", failed)
		return
	}
	if failed > 0 {
		m.logger.Warnw("usage reconcile finished with failures", "processed", processed, "failed", failed, "duration", time.Since(start))
		return
	}
	m.logger.Infow("usage reconcile finished", "processed", processed, "duration", time.Since(start))
}

// RegisterPolicyReload periodically rereads the operator ACL.
func (m *SchedulerManager) RegisterPolicyReload(interval time.Duration, reloader PolicyReloader) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := reloader.Reload(); err != nil {
				m.logger.Errorw("operator policy reload failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("permission"),
		gocron.WithName("operator-policy-reload"),
	)
	if err != nil {
		return err
	}
	m.logger.Infow("registered operator policy reload", "interval", interval)
	return nil
}

// Start begins scheduling the registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to finish.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}
	m.logger.Infow("stopping scheduler manager")
	err := m.scheduler.Shutdown()
	m.started = false
	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}
	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
