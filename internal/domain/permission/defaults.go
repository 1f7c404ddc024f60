package permission

const (
	RoleSlugAdmin  = "admin"
	RoleSlugMember = "member"
	RoleSlugViewer = "viewer"
)

// RoleTemplate describes a system role seeded into every new tenant.
type RoleTemplate struct {
	Name          string
	Slug          string
	IsTenantAdmin bool
	Grants        []Grant
}

func DefaultRoleTemplates() []RoleTemplate {
	return []RoleTemplate{
		{Name: "Administrator", Slug: RoleSlugAdmin, IsTenantAdmin: true},
		{
			Name: "Member",
			Slug: RoleSlugMember,
			Grants: []Grant{
				{Resource: ResourceExpenses, Actions: []Action{ActionCreate, ActionRead, ActionUpdate}},
				{Resource: ResourceAttachments, Actions: []Action{ActionCreate, ActionRead}},
				{Resource: ResourceCategories, Actions: []Action{ActionRead}},
				{Resource: ResourceActivities, Actions: []Action{ActionRead}},
			},
		},
		{
			Name: "Viewer",
			Slug: RoleSlugViewer,
			Grants: []Grant{
				{Resource: ResourceExpenses, Actions: []Action{ActionRead}},
				{Resource: ResourceCategories, Actions: []Action{ActionRead}},
				{Resource: ResourceActivities, Actions: []Action{ActionRead}},
			},
		},
	}
}
