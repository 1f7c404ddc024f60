package activity

import "fmt"

type Category string

const (
	CategoryTenant   Category = "tenant"
	CategoryBilling  Category = "billing"
	CategoryUser     Category = "user"
	CategoryExpense  Category = "expense"
	CategoryCategory Category = "category"
	CategorySecurity Category = "security"
	CategorySystem   Category = "system"
)

// Kind is one entry of the closed set of auditable actions. Values can only
// be obtained from the package-level variables or ParseKind, so every kind
// in use has rendering data. describe is a markdown sentence formatted with
// the actor label then the entity label.
type Kind struct {
	code       string
	title      string
	describe   string
	category   Category
	priority   Priority
	visibility Visibility
	icon       string
}

var (
	KindTenantCreated        = Kind{"tenant_created", "Organization created", "**%s** created organization **%s**", CategoryTenant, PriorityHigh, VisibilityAdminOnly, "building"}
	KindTenantSuspended      = Kind{"tenant_suspended", "Organization suspended", "**%s** suspended organization **%s**", CategoryTenant, PriorityCritical, VisibilityAdminOnly, "pause-circle"}
	KindTenantUnsuspended    = Kind{"tenant_unsuspended", "Organization reactivated", "**%s** reactivated organization **%s**", CategoryTenant, PriorityHigh, VisibilityAdminOnly, "play-circle"}
	KindTenantCancelled      = Kind{"tenant_cancelled", "Organization cancelled", "**%s** cancelled organization **%s**", CategoryTenant, PriorityCritical, VisibilityAdminOnly, "x-circle"}
	KindTenantActivated      = Kind{"tenant_activated", "Organization activated", "**%s** activated organization **%s**", CategoryBilling, PriorityHigh, VisibilityAdminOnly, "check-circle"}
	KindTrialExtended        = Kind{"trial_extended", "Trial extended", "**%s** extended the trial of **%s**", CategoryBilling, PriorityNormal, VisibilityAdminOnly, "clock"}
	KindPlanChanged          = Kind{"plan_changed", "Plan changed", "**%s** changed the plan of **%s**", CategoryBilling, PriorityHigh, VisibilityAdminOnly, "credit-card"}
	KindPlanUpdated          = Kind{"plan_updated", "Plan updated", "**%s** updated plan **%s**", CategoryBilling, PriorityNormal, VisibilitySystem, "credit-card"}
	KindCustomDomainSet      = Kind{"custom_domain_set", "Custom domain added", "**%s** added custom domain **%s**", CategoryTenant, PriorityNormal, VisibilityAdminOnly, "globe"}
	KindCustomDomainVerified = Kind{"custom_domain_verified", "Custom domain verified", "**%s** verified custom domain **%s**", CategoryTenant, PriorityNormal, VisibilityAdminOnly, "globe"}
	KindCustomDomainRemoved  = Kind{"custom_domain_removed", "Custom domain removed", "**%s** removed custom domain **%s**", CategoryTenant, PriorityNormal, VisibilityAdminOnly, "globe"}
	KindUsageRecalculated    = Kind{"usage_recalculated", "Usage recalculated", "**%s** recalculated usage for **%s**", CategorySystem, PriorityLow, VisibilitySystem, "refresh"}
	KindUserCreated          = Kind{"user_created", "Member added", "**%s** added member **%s**", CategoryUser, PriorityNormal, VisibilityPublic, "user-plus"}
	KindUserDeactivated      = Kind{"user_deactivated", "Member deactivated", "**%s** deactivated member **%s**", CategoryUser, PriorityHigh, VisibilityAdminOnly, "user-minus"}
	KindRoleUpdated          = Kind{"role_updated", "Role updated", "**%s** updated role **%s**", CategorySecurity, PriorityHigh, VisibilityAdminOnly, "shield"}
	KindExpenseCreated       = Kind{"expense_created", "Expense created", "**%s** created expense **%s**", CategoryExpense, PriorityNormal, VisibilityPublic, "receipt"}
	KindExpenseUpdated       = Kind{"expense_updated", "Expense updated", "**%s** updated expense **%s**", CategoryExpense, PriorityNormal, VisibilityPublic, "edit"}
	KindExpenseDeleted       = Kind{"expense_deleted", "Expense deleted", "**%s** deleted expense **%s**", CategoryExpense, PriorityNormal, VisibilityPublic, "trash"}
	KindExpenseApproved      = Kind{"expense_approved", "Expense approved", "**%s** approved expense **%s**", CategoryExpense, PriorityNormal, VisibilityPublic, "check"}
	KindCategoryCreated      = Kind{"category_created", "Category created", "**%s** created category **%s**", CategoryCategory, PriorityLow, VisibilityPublic, "tag"}
	KindCategoryDeleted      = Kind{"category_deleted", "Category deleted", "**%s** deleted category **%s**", CategoryCategory, PriorityLow, VisibilityPublic, "tag"}
	KindAttachmentUploaded   = Kind{"attachment_uploaded", "Attachment uploaded", "**%s** uploaded **%s**", CategoryExpense, PriorityLow, VisibilityPublic, "paperclip"}
)

var allKinds = []Kind{
	KindTenantCreated, KindTenantSuspended, KindTenantUnsuspended, KindTenantCancelled,
	KindTenantActivated, KindTrialExtended, KindPlanChanged, KindPlanUpdated,
	KindCustomDomainSet, KindCustomDomainVerified, KindCustomDomainRemoved, KindUsageRecalculated,
	KindUserCreated, KindUserDeactivated, KindRoleUpdated,
	KindExpenseCreated, KindExpenseUpdated, KindExpenseDeleted, KindExpenseApproved,
	KindCategoryCreated, KindCategoryDeleted, KindAttachmentUploaded,
}

var kindsByCode = func() map[string]Kind {
	m := make(map[string]Kind, len(allKinds))
	for _, k := range allKinds {
		m[k.code] = k
	}
	return m
}()

// ParseKind maps a stored code back to its Kind.
func ParseKind(code string) (Kind, bool) {
	k, ok := kindsByCode[code]
	return k, ok
}

// Kinds lists every known kind.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

func (k Kind) Code() string                  { return k.code }
func (k Kind) String() string                { return k.code }
func (k Kind) Title() string                 { return k.title }
func (k Kind) Category() Category            { return k.category }
func (k Kind) DefaultPriority() Priority     { return k.priority }
func (k Kind) DefaultVisibility() Visibility { return k.visibility }
func (k Kind) Icon() string                  { return k.icon }
func (k Kind) IsZero() bool                  { return k.code == "" }

// Describe renders the markdown description for actor acting on entity.
func (k Kind) Describe(actor, entity string) string {
	return fmt.Sprintf(k.describe, actor, entity)
}
