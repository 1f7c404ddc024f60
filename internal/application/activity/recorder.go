// Package activity records audit facts for tenant-changing actions and
// serves them back to tenant members.
package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/shared/events"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/goroutine"
	"github.com/spendwise/spendwise/internal/shared/id"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/metrics"
)

const EventActivityRecorded = "activity.recorded"

// Entry is what a caller knows about an action it just performed.
type Entry struct {
	TenantID   uint
	Kind       activity.Kind
	Entity     activity.EntityRef
	ActorID    uint
	ActorName  string
	Metadata   activity.Metadata
	Priority   activity.Priority
	Visibility activity.Visibility
	// RequestID scopes the idempotency key; retries of the same request
	// produce a single record.
	RequestID string
}

// Sanitizer strips markup from user-supplied labels.
type Sanitizer interface {
	StripTags(s string) string
}

// Notifier fans persisted records out to other surfaces.
type Notifier interface {
	PublishActivity(ctx context.Context, a *activity.Activity) error
}

// RecordedEvent carries a built record from the caller to the persisting handler.
type RecordedEvent struct {
	events.BaseEvent
	Activity *activity.Activity
}

// Recorder turns entries into activity records off the request path.
// Record never fails the caller.
type Recorder struct {
	publisher events.EventPublisher
	repo      activity.Repository
	sanitizer Sanitizer
	notifier  Notifier
	now       func() time.Time
	log       logger.Interface
}

func NewRecorder(publisher events.EventPublisher, repo activity.Repository, sanitizer Sanitizer, log logger.Interface) *Recorder {
	return &Recorder{
		publisher: publisher,
		repo:      repo,
		sanitizer: sanitizer,
		now:       biztime.NowUTC,
		log:       log,
	}
}

// SetNotifier sets the notifier for persisted records (optional).
func (r *Recorder) SetNotifier(n Notifier) {
	r.notifier = n
}

// Subscribe registers the persisting handler on d.
func (r *Recorder) Subscribe(d events.EventDispatcher) error {
	return d.Subscribe(EventActivityRecorded, events.HandlerFunc(r.handle))
}

func idempotencyKey(e Entry) string {
	if e.RequestID == "" {
		return uuid.NewString()
	}
	sum := sha256.Sum256([]byte(e.RequestID + "|" + e.Kind.Code() + "|" + e.Entity.Type + "|" + e.Entity.ID))
	return hex.EncodeToString(sum[:])
}

type requestIDKey struct{}

// WithRequestID binds the request ID used for idempotency keys.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey{}).(string)
	return s
}

// Record builds the record for e and queues it for persistence.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if e.RequestID == "" {
		e.RequestID = RequestIDFrom(ctx)
	}
	if e.TenantID == 0 {
		r.log.Warnw("activity skipped: no tenant", "kind", e.Kind.Code(), "entity_type", e.Entity.Type, "entity_id", e.Entity.ID)
		metrics.RecordAudit("skipped")
		return
	}

	sid, err := id.NewActivityID()
	if err != nil {
		r.log.Errorw("failed to generate activity ID", "error", err)
		metrics.RecordAudit("failed")
		return
	}

	entity := e.Entity
	entity.Name = r.sanitize(entity.Name)
	a, err := activity.NewActivity(
		sid, e.TenantID, e.Kind, entity,
		e.ActorID, r.sanitize(e.ActorName),
		e.Metadata, e.Priority, e.Visibility,
		idempotencyKey(e), r.now(),
	)
	if err != nil {
		r.log.Errorw("failed to build activity", "tenant_id", e.TenantID, "kind", e.Kind.Code(), "error", err)
		metrics.RecordAudit("failed")
		return
	}

	event := RecordedEvent{
		BaseEvent: events.BaseEvent{AggregateID: sid, EventType: EventActivityRecorded, OccurredAt: a.CreatedAt()},
		Activity:  a,
	}
	if r.publisher != nil {
		err := r.publisher.Publish(event)
		if err == nil {
			return
		}
		r.log.Warnw("activity dispatcher unavailable, persisting directly", "kind", e.Kind.Code(), "error", err)
	}

	detached := context.WithoutCancel(ctx)
	goroutine.SafeGo(r.log, "activity-persist", func() {
		_ = r.persist(detached, a)
	})
}

func (r *Recorder) sanitize(s string) string {
	if r.sanitizer == nil {
		return s
	}
	return r.sanitizer.StripTags(s)
}

func (r *Recorder) handle(ctx context.Context, event events.DomainEvent) error {
	ev, ok := event.(RecordedEvent)
	if !ok {
		return nil
	}
	return r.persist(ctx, ev.Activity)
}

func (r *Recorder) persist(ctx context.Context, a *activity.Activity) error {
	inserted, err := r.repo.Create(ctx, a)
	if err != nil {
		r.log.Errorw("failed to persist activity",
			"tenant_id", a.TenantID(),
			"kind", a.Kind().Code(),
			"entity_type", a.Entity().Type,
			"entity_id", a.Entity().ID,
			"error", err,
		)
		metrics.RecordAudit("failed")
		return err
	}
	if !inserted {
		r.log.Debugw("duplicate activity ignored", "tenant_id", a.TenantID(), "idempotency_key", a.IdempotencyKey())
		metrics.RecordAudit("duplicate")
		return nil
	}
	metrics.RecordAudit("persisted")

	if r.notifier != nil {
		if err := r.notifier.PublishActivity(ctx, a); err != nil {
			r.log.Warnw("failed to publish activity", "activity_sid", a.SID(), "error", err)
		}
	}
	return nil
}
