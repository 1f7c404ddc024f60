package tenancy

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/metrics"
)

// TenantCache is a read-through cache in front of the tenant repository.
// A cached miss (found=true, tenant=nil) suppresses repeated lookups of
// unknown names until it expires.
type TenantCache interface {
	Get(ctx context.Context, key string) (t *tenant.Tenant, found bool, err error)
	Set(ctx context.Context, key string, t *tenant.Tenant) error
	SetMissing(ctx context.Context, key string) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Directory is the only authority on whether a tenant exists and is usable.
// It never substitutes a default tenant for one it cannot find.
type Directory struct {
	repo  tenant.Repository
	cache TenantCache
	group singleflight.Group
	log   logger.Interface
}

func NewDirectory(repo tenant.Repository, cache TenantCache, log logger.Interface) *Directory {
	return &Directory{repo: repo, cache: cache, log: log}
}

func slugKey(slug string) string   { return "slug:" + slug }
func domainKey(host string) string { return "domain:" + host }
func sidKey(sid string) string     { return "sid:" + sid }
func idKey(id uint) string         { return "id:" + strconv.FormatUint(uint64(id), 10) }

// Resolve maps an identity to a live tenant. It returns (nil, nil) when the
// identity names no tenant at all, and TENANT_NOT_FOUND when it names one
// that does not resolve.
func (d *Directory) Resolve(ctx context.Context, id Identity) (*tenant.Tenant, error) {
	switch id.Kind {
	case KindActor:
		if id.Operator {
			if id.Target == nil {
				return nil, nil
			}
			return d.Resolve(ctx, *id.Target)
		}
		if id.TenantSID == "" {
			return nil, errors.NewTenantNotFoundError()
		}
		return d.ResolveBySID(ctx, id.TenantSID)
	case KindSubdomain:
		return d.ResolveBySlug(ctx, id.Slug)
	case KindCustomDomain:
		return d.ResolveByDomain(ctx, id.Host)
	default:
		return nil, nil
	}
}

func (d *Directory) ResolveBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return d.lookup(ctx, slugKey(slug), func() (*tenant.Tenant, error) {
		return d.repo.GetBySlug(ctx, slug)
	})
}

// ResolveByDomain only matches verified custom domains.
func (d *Directory) ResolveByDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	return d.lookup(ctx, domainKey(host), func() (*tenant.Tenant, error) {
		return d.repo.GetByVerifiedDomain(ctx, host)
	})
}

func (d *Directory) ResolveBySID(ctx context.Context, sid string) (*tenant.Tenant, error) {
	return d.lookup(ctx, sidKey(sid), func() (*tenant.Tenant, error) {
		t, err := d.repo.GetBySID(ctx, sid)
		if err != nil || t == nil || !t.IsActive() {
			return nil, err
		}
		return t, nil
	})
}

func (d *Directory) ResolveByID(ctx context.Context, id uint) (*tenant.Tenant, error) {
	return d.lookup(ctx, idKey(id), func() (*tenant.Tenant, error) {
		t, err := d.repo.GetByID(ctx, id)
		if err != nil || t == nil || !t.IsActive() {
			return nil, err
		}
		return t, nil
	})
}

func (d *Directory) lookup(ctx context.Context, key string, load func() (*tenant.Tenant, error)) (*tenant.Tenant, error) {
	if d.cache != nil {
		t, found, err := d.cache.Get(ctx, key)
		if err != nil {
			d.log.Warnw("tenant cache read failed, falling back to database", "key", key, "error", err)
		} else if found {
			metrics.RecordTenantCacheLookup(true)
			if t == nil {
				return nil, errors.NewTenantNotFoundError()
			}
			return t, nil
		}
		metrics.RecordTenantCacheLookup(false)
	}

	v, err, _ := d.group.Do(key, func() (any, error) {
		t, err := load()
		if err != nil {
			return nil, fmt.Errorf("failed to load tenant %s: %w", key, err)
		}
		if d.cache != nil {
			if t == nil {
				err = d.cache.SetMissing(ctx, key)
			} else {
				err = d.cache.Set(ctx, key, t)
			}
			if err != nil {
				d.log.Warnw("tenant cache write failed", "key", key, "error", err)
			}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	t, _ := v.(*tenant.Tenant)
	if t == nil {
		return nil, errors.NewTenantNotFoundError()
	}
	return t, nil
}

// Invalidate drops every cache entry that could point at t. Pass the
// previous custom domain when it changed.
func (d *Directory) Invalidate(ctx context.Context, t *tenant.Tenant, previousDomains ...string) {
	if d.cache == nil || t == nil {
		return
	}
	keys := []string{slugKey(t.Slug()), sidKey(t.SID()), idKey(t.ID())}
	if dom := t.CustomDomain(); dom != nil {
		keys = append(keys, domainKey(*dom))
	}
	for _, dom := range previousDomains {
		if dom != "" {
			keys = append(keys, domainKey(dom))
		}
	}
	if err := d.cache.Invalidate(ctx, keys...); err != nil {
		d.log.Errorw("failed to invalidate tenant cache", "tenant_id", t.ID(), "error", err)
	}
}

// InvalidateIDs reloads and invalidates each tenant in ids.
func (d *Directory) InvalidateIDs(ctx context.Context, ids []uint) {
	for _, id := range ids {
		t, err := d.repo.GetByID(ctx, id)
		if err != nil || t == nil {
			continue
		}
		d.Invalidate(ctx, t)
	}
}
