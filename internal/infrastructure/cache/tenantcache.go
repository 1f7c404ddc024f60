package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

const (
	localTenantCapacity = 4096
	localTenantTTL      = 5 * time.Second
	nullMarkerTTL       = 30 * time.Second // short, so a newly created tenant shows up quickly
	nullMarker          = "_null"
)

// ChangePublisher tells peer instances which keys to drop from their local layer.
type ChangePublisher interface {
	PublishTenantChanged(ctx context.Context, keys []string) error
}

// entry is the local layer's value; a nil tenant is a cached miss.
type entry struct {
	tenant *tenant.Tenant
}

// TieredTenantCache keeps tenants in a small per-process LRU in front of
// Redis. Either layer may be absent. Invalidation clears both and asks
// peers to clear their local layer.
type TieredTenantCache struct {
	local     *expirable.LRU[string, entry]
	client    *redis.Client
	ttl       time.Duration
	publisher ChangePublisher
	logger    logger.Interface
}

// NewTieredTenantCache builds the cache. client may be nil for a
// single-instance deployment.
func NewTieredTenantCache(client *redis.Client, ttl time.Duration, logger logger.Interface) *TieredTenantCache {
	localTTL := min(localTenantTTL, ttl)
	return &TieredTenantCache{
		local:  expirable.NewLRU[string, entry](localTenantCapacity, nil, localTTL),
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// SetPublisher sets the peer notification channel (optional).
func (c *TieredTenantCache) SetPublisher(p ChangePublisher) {
	c.publisher = p
}

func (c *TieredTenantCache) redisKey(key string) string {
	return constants.RedisPrefixTenant + key
}

// jitteredTTL spreads expiry of entries written together by up to a fifth of the TTL.
func (c *TieredTenantCache) jitteredTTL() time.Duration {
	spread := int64(c.ttl / 5)
	if spread <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(rand.Int64N(spread))
}

func (c *TieredTenantCache) Get(ctx context.Context, key string) (*tenant.Tenant, bool, error) {
	if e, ok := c.local.Get(key); ok {
		return e.tenant, true, nil
	}
	if c.client == nil {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get tenant from cache: %w", err)
	}
	if string(raw) == nullMarker {
		c.local.Add(key, entry{})
		return nil, true, nil
	}

	t, err := decodeTenant(raw)
	if err != nil {
		// a payload we cannot read is treated as a miss and overwritten on reload
		c.logger.Warnw("discarding unreadable tenant cache entry", "key", key, "error", err)
		return nil, false, nil
	}
	c.local.Add(key, entry{tenant: t})
	return t, true, nil
}

func (c *TieredTenantCache) Set(ctx context.Context, key string, t *tenant.Tenant) error {
	c.local.Add(key, entry{tenant: t})
	if c.client == nil {
		return nil
	}
	raw, err := encodeTenant(t)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.redisKey(key), raw, c.jitteredTTL()).Err(); err != nil {
		return fmt.Errorf("failed to set tenant cache: %w", err)
	}
	return nil
}

func (c *TieredTenantCache) SetMissing(ctx context.Context, key string) error {
	c.local.Add(key, entry{})
	if c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, c.redisKey(key), nullMarker, nullMarkerTTL).Err(); err != nil {
		return fmt.Errorf("failed to set tenant null marker: %w", err)
	}
	return nil
}

func (c *TieredTenantCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c.DropLocal(keys...)

	if c.client != nil {
		redisKeys := make([]string, len(keys))
		for i, k := range keys {
			redisKeys[i] = c.redisKey(k)
		}
		if err := c.client.Del(ctx, redisKeys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate tenant cache: %w", err)
		}
	}

	if c.publisher != nil {
		if err := c.publisher.PublishTenantChanged(ctx, keys); err != nil {
			c.logger.Warnw("failed to notify peers of tenant change", "keys", keys, "error", err)
		}
	}
	return nil
}

// DropLocal evicts keys from this instance's local layer only.
func (c *TieredTenantCache) DropLocal(keys ...string) {
	for _, k := range keys {
		c.local.Remove(k)
	}
}

// snapshot is the Redis form of a tenant. Usage is not cached; the quota
// enforcer always reads live counters.
type snapshot struct {
	ID                uint       `json:"id"`
	SID               string     `json:"sid"`
	Name              string     `json:"name"`
	Slug              string     `json:"slug"`
	CustomDomain      *string    `json:"custom_domain,omitempty"`
	DomainVerified    bool       `json:"domain_verified"`
	DomainVerifyToken string     `json:"domain_verify_token,omitempty"`
	Status            string     `json:"status"`
	PlanSlug          string     `json:"plan_slug"`
	MaxUsers          int64      `json:"max_users"`
	MaxRecords        int64      `json:"max_records"`
	MaxStorageBytes   int64      `json:"max_storage_bytes"`
	Features          []string   `json:"features"`
	TrialEndDate      *time.Time `json:"trial_end_date,omitempty"`
	IsActive          bool       `json:"is_active"`
	Version           int        `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func encodeTenant(t *tenant.Tenant) ([]byte, error) {
	s := t.Settings()
	raw, err := json.Marshal(snapshot{
		ID:                t.ID(),
		SID:               t.SID(),
		Name:              t.Name(),
		Slug:              t.Slug(),
		CustomDomain:      t.CustomDomain(),
		DomainVerified:    t.DomainVerified(),
		DomainVerifyToken: t.DomainVerifyToken(),
		Status:            string(t.Status()),
		PlanSlug:          t.PlanSlug(),
		MaxUsers:          s.MaxUsers,
		MaxRecords:        s.MaxRecords,
		MaxStorageBytes:   s.MaxStorageBytes,
		Features:          s.Features,
		TrialEndDate:      t.TrialEndDate(),
		IsActive:          t.IsActive(),
		Version:           t.Version(),
		CreatedAt:         t.CreatedAt(),
		UpdatedAt:         t.UpdatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tenant: %w", err)
	}
	return raw, nil
}

func decodeTenant(raw []byte) (*tenant.Tenant, error) {
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return tenant.ReconstructTenant(
		s.ID, s.SID, s.Name, s.Slug,
		s.CustomDomain, s.DomainVerified, s.DomainVerifyToken,
		tenant.Status(s.Status), s.PlanSlug,
		tenant.NewSettings(s.MaxUsers, s.MaxRecords, s.MaxStorageBytes, s.Features),
		tenant.Usage{},
		s.TrialEndDate, s.IsActive, s.Version,
		s.CreatedAt, s.UpdatedAt,
	)
}
