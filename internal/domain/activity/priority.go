package activity

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// IsCritical records are exempt from the retention sweep.
func (p Priority) IsCritical() bool {
	return p == PriorityCritical
}

// Visibility scopes who may see a record.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityAdminOnly Visibility = "admin_only"
	VisibilitySystem    Visibility = "system"
)

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityAdminOnly, VisibilitySystem:
		return true
	}
	return false
}

// Viewer is who is looking at activity records.
type Viewer struct {
	UserID        uint
	IsTenantAdmin bool
	IsOperator    bool
}

// VisibleScopes lists the visibilities v may read.
func (v Viewer) VisibleScopes() []Visibility {
	switch {
	case v.IsOperator:
		return []Visibility{VisibilityPublic, VisibilityAdminOnly, VisibilitySystem}
	case v.IsTenantAdmin:
		return []Visibility{VisibilityPublic, VisibilityAdminOnly}
	default:
		return []Visibility{VisibilityPublic}
	}
}
