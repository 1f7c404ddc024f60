package permission

import "slices"

// Grant allows a set of actions on one resource.
type Grant struct {
	Resource string   `json:"resource"`
	Actions  []Action `json:"actions"`
}

func (g Grant) Allows(action Action) bool {
	return slices.Contains(g.Actions, action) || slices.Contains(g.Actions, ActionManage)
}

// Evaluate decides whether a role's grants permit action on resource.
// Tenant admins bypass the grant table. Without a matching resource entry
// the answer is no.
func Evaluate(isTenantAdmin bool, grants []Grant, resource string, action Action) bool {
	if isTenantAdmin {
		return true
	}
	if resource == "" || action == "" {
		return false
	}
	for _, g := range grants {
		if g.Resource == resource && g.Allows(action) {
			return true
		}
	}
	return false
}
