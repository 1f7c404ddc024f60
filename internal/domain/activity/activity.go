package activity

import (
	"errors"
	"fmt"
	"time"
)

var ErrActivityNotFound = errors.New("activity not found")

// EntityRef names the target of an action.
type EntityRef struct {
	Type string
	ID   string
	Name string
}

// Activity is an append-only audit fact. After creation only the read flag
// changes, until the retention sweep removes it.
type Activity struct {
	id              uint
	sid             string
	tenantID        uint
	kind            Kind
	title           string
	description     string
	entity          EntityRef
	performedBy     uint
	performedByName string
	metadata        Metadata
	isRead          bool
	priority        Priority
	visibility      Visibility
	idempotencyKey  string
	createdAt       time.Time
}

// NewActivity renders the title and description from kind. Zero priority or
// visibility fall back to the kind's defaults.
func NewActivity(
	sid string,
	tenantID uint,
	kind Kind,
	entity EntityRef,
	performedBy uint,
	performedByName string,
	metadata Metadata,
	priority Priority,
	visibility Visibility,
	idempotencyKey string,
	now time.Time,
) (*Activity, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("activity requires a resolved tenant")
	}
	if kind.IsZero() {
		return nil, fmt.Errorf("activity kind is required")
	}
	if entity.Type == "" || entity.ID == "" {
		return nil, fmt.Errorf("activity target entity is required")
	}
	if priority == "" {
		priority = kind.DefaultPriority()
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority: %s", priority)
	}
	if visibility == "" {
		visibility = kind.DefaultVisibility()
	}
	if !visibility.IsValid() {
		return nil, fmt.Errorf("invalid visibility: %s", visibility)
	}
	actorLabel := performedByName
	if actorLabel == "" {
		actorLabel = "System"
	}
	entityLabel := entity.Name
	if entityLabel == "" {
		entityLabel = entity.ID
	}

	return &Activity{
		sid:             sid,
		tenantID:        tenantID,
		kind:            kind,
		title:           kind.Title(),
		description:     kind.Describe(actorLabel, entityLabel),
		entity:          entity,
		performedBy:     performedBy,
		performedByName: performedByName,
		metadata:        metadata,
		priority:        priority,
		visibility:      visibility,
		idempotencyKey:  idempotencyKey,
		createdAt:       now,
	}, nil
}

func ReconstructActivity(
	id uint,
	sid string,
	tenantID uint,
	kind Kind,
	title, description string,
	entity EntityRef,
	performedBy uint,
	performedByName string,
	metadata Metadata,
	isRead bool,
	priority Priority,
	visibility Visibility,
	idempotencyKey string,
	createdAt time.Time,
) (*Activity, error) {
	if id == 0 {
		return nil, fmt.Errorf("activity ID cannot be zero")
	}
	return &Activity{
		id:              id,
		sid:             sid,
		tenantID:        tenantID,
		kind:            kind,
		title:           title,
		description:     description,
		entity:          entity,
		performedBy:     performedBy,
		performedByName: performedByName,
		metadata:        metadata,
		isRead:          isRead,
		priority:        priority,
		visibility:      visibility,
		idempotencyKey:  idempotencyKey,
		createdAt:       createdAt,
	}, nil
}

func (a *Activity) ID() uint                { return a.id }
func (a *Activity) SID() string             { return a.sid }
func (a *Activity) TenantID() uint          { return a.tenantID }
func (a *Activity) Kind() Kind              { return a.kind }
func (a *Activity) Title() string           { return a.title }
func (a *Activity) Description() string     { return a.description }
func (a *Activity) Entity() EntityRef       { return a.entity }
func (a *Activity) PerformedBy() uint       { return a.performedBy }
func (a *Activity) PerformedByName() string { return a.performedByName }
func (a *Activity) Metadata() Metadata      { return a.metadata }
func (a *Activity) IsRead() bool            { return a.isRead }
func (a *Activity) Priority() Priority      { return a.priority }
func (a *Activity) Category() Category      { return a.kind.Category() }
func (a *Activity) Visibility() Visibility  { return a.visibility }
func (a *Activity) IdempotencyKey() string  { return a.idempotencyKey }
func (a *Activity) CreatedAt() time.Time    { return a.createdAt }

func (a *Activity) SetID(id uint) error {
	if a.id != 0 {
		return fmt.Errorf("activity ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("activity ID cannot be zero")
	}
	a.id = id
	return nil
}

// VisibleTo reports whether viewer may see the record.
func (a *Activity) VisibleTo(v Viewer) bool {
	for _, s := range v.VisibleScopes() {
		if s == a.visibility {
			return true
		}
	}
	return false
}
