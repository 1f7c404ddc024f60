package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/goroutine"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// TenantChangedEvent tells peer instances to drop their local copies of a tenant.
type TenantChangedEvent struct {
	Keys       []string `json:"keys"`
	Timestamp  int64    `json:"timestamp"`
	InstanceID string   `json:"instance_id,omitempty"` // source instance, to skip self-delivery
}

// ActivityCreatedEvent is the live-feed form of a persisted activity record.
type ActivityCreatedEvent struct {
	TenantID    uint   `json:"tenant_id"`
	SID         string `json:"sid"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Visibility  string `json:"visibility"`
	PerformedBy uint   `json:"performed_by"`
	CreatedAt   int64  `json:"created_at"`
}

// RedisTenantEventBus relays tenant changes and new activity records
// between instances over Redis Pub/Sub.
type RedisTenantEventBus struct {
	client     *redis.Client
	logger     logger.Interface
	instanceID string
}

func NewRedisTenantEventBus(client *redis.Client, logger logger.Interface) *RedisTenantEventBus {
	return &RedisTenantEventBus{
		client:     client,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this process on the bus.
func (b *RedisTenantEventBus) InstanceID() string {
	return b.instanceID
}

// PublishTenantChanged announces that the given tenant cache keys are stale.
func (b *RedisTenantEventBus) PublishTenantChanged(ctx context.Context, keys []string) error {
	event := TenantChangedEvent{
		Keys:       keys,
		Timestamp:  biztime.NowUTC().Unix(),
		InstanceID: b.instanceID,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant changed event: %w", err)
	}
	if err := b.client.Publish(ctx, constants.ChannelTenantChanged, data).Err(); err != nil {
		b.logger.Errorw("failed to publish tenant changed event", "keys", keys, "error", err)
		return fmt.Errorf("failed to publish tenant changed event: %w", err)
	}
	return nil
}

// PublishActivity implements the recorder's notifier.
func (b *RedisTenantEventBus) PublishActivity(ctx context.Context, a *activity.Activity) error {
	event := ActivityCreatedEvent{
		TenantID:    a.TenantID(),
		SID:         a.SID(),
		Kind:        a.Kind().Code(),
		Title:       a.Title(),
		Description: a.Description(),
		Priority:    string(a.Priority()),
		Visibility:  string(a.Visibility()),
		PerformedBy: a.PerformedBy(),
		CreatedAt:   a.CreatedAt().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}
	if err := b.client.Publish(ctx, constants.ChannelActivityCreated, data).Err(); err != nil {
		return fmt.Errorf("failed to publish activity event: %w", err)
	}
	b.logger.Debugw("activity published", "tenant_id", a.TenantID(), "activity_sid", a.SID())
	return nil
}

// SubscribeTenantChanged blocks until ctx is done. Events published by this
// instance are filtered out.
func (b *RedisTenantEventBus) SubscribeTenantChanged(ctx context.Context, handler func(event TenantChangedEvent)) error {
	return b.subscribeWithReconnect(ctx, constants.ChannelTenantChanged, func(payload string) {
		var event TenantChangedEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			b.logger.Warnw("failed to unmarshal tenant changed event", "payload", payload, "error", err)
			return
		}
		if event.InstanceID == b.instanceID {
			return
		}
		handler(event)
	})
}

func (b *RedisTenantEventBus) SubscribeActivities(ctx context.Context, handler func(event ActivityCreatedEvent)) error {
	return b.subscribeWithReconnect(ctx, constants.ChannelActivityCreated, func(payload string) {
		var event ActivityCreatedEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			b.logger.Warnw("failed to unmarshal activity event", "payload", payload, "error", err)
			return
		}
		handler(event)
	})
}

// subscribeWithReconnect resubscribes with exponential backoff until ctx ends.
func (b *RedisTenantEventBus) subscribeWithReconnect(ctx context.Context, channel string, handler func(payload string)) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, channel, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("tenant event subscription disconnected, reconnecting",
			"channel", channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisTenantEventBus) subscribe(ctx context.Context, channel string, handler func(payload string)) error {
	ps := b.client.Subscribe(ctx, channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}
	b.logger.Infow("subscribed to tenant event channel", "channel", channel)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("tenant event subscriber stopped", "channel", channel, "reason", ctx.Err())
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("tenant event channel closed", "channel", channel)
				return nil
			}
			goroutine.SafeGo(b.logger, "tenant-event-handler", func() {
				handler(msg.Payload)
			})
		}
	}
}
