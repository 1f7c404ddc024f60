package permission

// Action is a verb a grant can allow on a resource. ActionManage implies
// every other action on the same resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionExport  Action = "export"
	ActionManage  Action = "manage"
)

var knownActions = map[Action]bool{
	ActionCreate:  true,
	ActionRead:    true,
	ActionUpdate:  true,
	ActionDelete:  true,
	ActionApprove: true,
	ActionExport:  true,
	ActionManage:  true,
}

func (a Action) IsValid() bool {
	return knownActions[a]
}

func (a Action) String() string {
	return string(a)
}

// Resources guarded by tenant roles.
const (
	ResourceExpenses    = "expenses"
	ResourceCategories  = "categories"
	ResourceUsers       = "users"
	ResourceRoles       = "roles"
	ResourceReports     = "reports"
	ResourceActivities  = "activities"
	ResourceSettings    = "settings"
	ResourceBilling     = "billing"
	ResourceAttachments = "attachments"
)

// Platform resources guarded by the operator ACL.
const (
	ResourceTenants         = "tenants"
	ResourcePlans           = "plans"
	ResourceUsage           = "usage"
	ResourceTenantDeletions = "tenant_deletions"
)
