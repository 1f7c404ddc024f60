// Package permission backs the platform-operator ACL with Casbin.
package permission

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// DefaultModel is used when no model file is configured.
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

// defaultPolicies seeds a fresh policy table. Support staff can look but
// only touch usage counters.
var defaultPolicies = [][]string{
	{user.OperatorRoleSuperAdmin, "*", "*"},
	{user.OperatorRoleSupport, permission.ResourceTenants, string(permission.ActionRead)},
	{user.OperatorRoleSupport, permission.ResourcePlans, string(permission.ActionRead)},
	{user.OperatorRoleSupport, permission.ResourceUsage, string(permission.ActionRead)},
	{user.OperatorRoleSupport, permission.ResourceUsage, string(permission.ActionUpdate)},
	{user.OperatorRoleSupport, permission.ResourceActivities, string(permission.ActionRead)},
}

// OperatorACL answers whether an operator role may act on a platform resource.
type OperatorACL struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

// NewOperatorACL loads policies from the casbin_rule table, seeding the
// defaults when it is empty. An empty modelPath selects DefaultModel.
func NewOperatorACL(db *gorm.DB, modelPath string, log logger.Interface) (*OperatorACL, error) {
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", constants.TableCasbinRules)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	var m model.Model
	if modelPath == "" {
		m, err = model.NewModelFromString(DefaultModel)
	} else {
		m, err = model.NewModelFromFile(modelPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	acl := &OperatorACL{enforcer: enforcer, logger: log}
	if err := acl.seed(); err != nil {
		return nil, err
	}
	return acl, nil
}

func (a *OperatorACL) seed() error {
	policies, err := a.enforcer.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to read policy: %w", err)
	}
	if len(policies) > 0 {
		return nil
	}
	if _, err := a.enforcer.AddPolicies(defaultPolicies); err != nil {
		return fmt.Errorf("failed to seed operator policies: %w", err)
	}
	a.logger.Infow("operator policies seeded", "count", len(defaultPolicies))
	return nil
}

func (a *OperatorACL) Allowed(operatorRole, resource, action string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	allowed, err := a.enforcer.Enforce(operatorRole, resource, action)
	if err != nil {
		a.logger.Errorw("operator permission check failed", "error", err, "role", operatorRole, "resource", resource, "action", action)
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return allowed, nil
}

func (a *OperatorACL) Grant(operatorRole, resource, action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.enforcer.AddPolicy(operatorRole, resource, action); err != nil {
		a.logger.Errorw("failed to add operator policy", "error", err)
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return nil
}

func (a *OperatorACL) Revoke(operatorRole, resource, action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.enforcer.RemovePolicy(operatorRole, resource, action); err != nil {
		a.logger.Errorw("failed to remove operator policy", "error", err)
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return nil
}

// Reload rereads the policy table, picking up edits made by other instances.
func (a *OperatorACL) Reload() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}
	a.logger.Info("operator policy reloaded")
	return nil
}
