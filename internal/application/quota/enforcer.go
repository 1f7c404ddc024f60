// Package quota admits and releases consumption of plan-limited resources.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/db"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/metrics"
)

// TxRunner opens a transaction and carries it through ctx.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Enforcer guarantees that a tenant's counters never pass its plan limits,
// however many requests race for the last unit.
type Enforcer struct {
	usage tenant.UsageRepository
	tx    TxRunner
	now   func() time.Time
	log   logger.Interface
}

func NewEnforcer(usage tenant.UsageRepository, tx TxRunner, log logger.Interface) *Enforcer {
	return &Enforcer{usage: usage, tx: tx, now: biztime.NowUTC, log: log}
}

func limitCode(r tenant.Resource) errors.ErrorCode {
	switch r {
	case tenant.ResourceUsers:
		return errors.CodeUserLimitExceeded
	case tenant.ResourceRecords:
		return errors.CodeExpenseLimitExceeded
	default:
		return errors.CodeStorageLimitExceeded
	}
}

// normalize returns the amount to admit. Count classes always take at least
// one unit; a zero-byte upload takes nothing.
func normalize(r tenant.Resource, amount int64) int64 {
	if r == tenant.ResourceStorage {
		if amount < 0 {
			return 0
		}
		return amount
	}
	if amount < 1 {
		return 1
	}
	return amount
}

func (e *Enforcer) usageOf(ctx context.Context, tenantID uint) (tenant.Usage, error) {
	u, err := e.usage.Get(ctx, tenantID)
	if err != nil {
		return tenant.Usage{}, err
	}
	if u == nil {
		return tenant.Usage{}, nil
	}
	return *u, nil
}

func (e *Enforcer) rejection(ctx context.Context, t *tenant.Tenant, r tenant.Resource, period int) error {
	u, err := e.usageOf(ctx, t.ID())
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}
	return errors.NewLimitExceededError(limitCode(r), r.String(), u.Current(r, period), t.Settings().Limit(r), t.PlanSlug())
}

// Check is the read-only preflight: it reports whether amount more of r
// would fit right now. It admits nothing.
func (e *Enforcer) Check(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) error {
	if !r.IsValid() {
		return fmt.Errorf("unknown quota resource: %q", r)
	}
	amount = normalize(r, amount)
	limit := t.Settings().Limit(r)
	if amount == 0 || limit == tenant.Unlimited {
		return nil
	}

	period := biztime.PeriodKey(e.now())
	u, err := e.usageOf(ctx, t.ID())
	if err != nil {
		e.log.Errorw("failed to read usage", "tenant_id", t.ID(), "resource", r, "error", err)
		return fmt.Errorf("failed to read usage: %w", err)
	}
	current := u.Current(r, period)
	if current+amount > limit {
		return errors.NewLimitExceededError(limitCode(r), r.String(), current, limit, t.PlanSlug())
	}
	return nil
}

// Admit consumes amount of r or rejects with a *GateError. When ctx carries
// a transaction the increment commits or rolls back with it; otherwise the
// returned reservation must be committed or released by the caller.
func (e *Enforcer) Admit(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) (*Reservation, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("unknown quota resource: %q", r)
	}
	amount = normalize(r, amount)
	res := &Reservation{enforcer: e, tenant: t, resource: r, amount: amount, inTx: db.InTransaction(ctx)}
	if amount == 0 {
		res.committed = true
		return res, nil
	}

	limit := t.Settings().Limit(r)
	period := biztime.PeriodKey(e.now())

	ok, err := e.usage.TryIncrement(ctx, t.ID(), r, amount, limit, period)
	if err != nil {
		e.log.Errorw("quota admission failed", "tenant_id", t.ID(), "resource", r, "amount", amount, "error", err)
		return nil, fmt.Errorf("failed to admit %s: %w", r, err)
	}
	if !ok {
		// a tenant provisioned before counters existed has no row yet
		existing, err := e.usage.Get(ctx, t.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to read usage: %w", err)
		}
		if existing == nil {
			if err := e.usage.Init(ctx, t.ID(), period); err != nil {
				return nil, fmt.Errorf("failed to initialize usage: %w", err)
			}
			ok, err = e.usage.TryIncrement(ctx, t.ID(), r, amount, limit, period)
			if err != nil {
				return nil, fmt.Errorf("failed to admit %s: %w", r, err)
			}
		}
	}

	metrics.RecordQuotaAdmission(r.String(), ok)
	if !ok {
		e.log.Infow("quota exhausted", "tenant_id", t.ID(), "resource", r, "amount", amount, "limit", limit)
		return nil, e.rejection(ctx, t, r, period)
	}
	return res, nil
}

// Release returns amount of r, for deletions. Counters never go below zero.
func (e *Enforcer) Release(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) error {
	amount = normalize(r, amount)
	if amount == 0 {
		return nil
	}
	if err := e.usage.Decrement(ctx, t.ID(), r, amount, biztime.PeriodKey(e.now())); err != nil {
		e.log.Errorw("failed to release quota", "tenant_id", t.ID(), "resource", r, "amount", amount, "error", err)
		return fmt.Errorf("failed to release %s: %w", r, err)
	}
	return nil
}

// Within admits amount of r and runs fn in the same transaction. If fn fails
// the increment is rolled back together with fn's writes.
func (e *Enforcer) Within(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64, fn func(ctx context.Context) error) error {
	return e.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		res, err := e.Admit(txCtx, t, r, amount)
		if err != nil {
			return err
		}
		if err := fn(txCtx); err != nil {
			return err
		}
		res.Commit()
		return nil
	})
}

// Reservation is an admitted amount awaiting the outcome of the write it
// guards. Inside a transaction, rollback is the release.
type Reservation struct {
	enforcer *Enforcer
	tenant   *tenant.Tenant
	resource tenant.Resource
	amount   int64
	inTx     bool

	mu        sync.Mutex
	committed bool
	released  bool
}

func (r *Reservation) Amount() int64 { return r.amount }

// Commit makes the reservation final.
func (r *Reservation) Commit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = true
}

// Release gives the amount back unless the reservation was committed or is
// covered by a transaction. It is safe to call more than once.
func (r *Reservation) Release(ctx context.Context) error {
	r.mu.Lock()
	if r.committed || r.released || r.inTx {
		r.mu.Unlock()
		return nil
	}
	r.released = true
	r.mu.Unlock()
	return r.enforcer.Release(ctx, r.tenant, r.resource, r.amount)
}
