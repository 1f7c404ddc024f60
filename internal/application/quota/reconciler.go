package quota

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// UsageSource counts a tenant's actual consumption from the business tables.
type UsageSource interface {
	CountActiveUsers(ctx context.Context, tenantID uint) (int64, error)
	CountRecords(ctx context.Context, tenantID uint, from, to time.Time) (int64, error)
	SumStorageBytes(ctx context.Context, tenantID uint) (int64, error)
}

// Reconciler recounts usage from source and overwrites the counters, which
// drift when writes bypass admission or a compensation is lost.
type Reconciler struct {
	usage       tenant.UsageRepository
	source      UsageSource
	tenants     tenant.Repository
	concurrency int
	now         func() time.Time
	log         logger.Interface
}

func NewReconciler(usage tenant.UsageRepository, source UsageSource, tenants tenant.Repository, concurrency int, log logger.Interface) *Reconciler {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Reconciler{
		usage:       usage,
		source:      source,
		tenants:     tenants,
		concurrency: concurrency,
		now:         biztime.NowUTC,
		log:         log,
	}
}

// Recalculate recounts one tenant and returns the stored snapshot.
func (r *Reconciler) Recalculate(ctx context.Context, tenantID uint) (*tenant.Usage, error) {
	now := r.now()

	users, err := r.source.CountActiveUsers(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	records, err := r.source.CountRecords(ctx, tenantID, biztime.StartOfMonthUTC(now), biztime.StartOfNextMonthUTC(now))
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	storage, err := r.source.SumStorageBytes(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum storage: %w", err)
	}

	u := tenant.Usage{
		Users:              users,
		Records:            records,
		RecordsPeriod:      biztime.PeriodKey(now),
		StorageBytes:       storage,
		LastRecalculatedAt: &now,
	}
	if err := r.usage.Overwrite(ctx, tenantID, u); err != nil {
		return nil, fmt.Errorf("failed to store usage: %w", err)
	}

	r.log.Debugw("usage recalculated", "tenant_id", tenantID, "users", users, "records", records, "storage_bytes", storage)
	return &u, nil
}

// RecalculateAll recounts every tenant with bounded concurrency. A failing
// tenant is logged and skipped; the count of failures is returned.
func (r *Reconciler) RecalculateAll(ctx context.Context) (processed, failed int, err error) {
	ids, err := r.tenants.ListIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list tenants: %w", err)
	}

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := r.Recalculate(gctx, id); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures.Add(1)
				r.log.Warnw("usage recalculation failed", "tenant_id", id, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(ids), int(failures.Load()), err
	}

	r.log.Infow("usage reconciliation completed", "tenants", len(ids), "failed", failures.Load())
	return len(ids), int(failures.Load()), nil
}
