package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type Authorizer interface {
	Authorize(ctx context.Context, req tenancy.Request) error
}

type TenantLoader interface {
	GetBySID(ctx context.Context, sid string) (*tenant.Tenant, error)
}

// Reservation is consumed quota awaiting the outcome of the request.
type Reservation interface {
	Commit()
	Release(ctx context.Context) error
}

// QuotaAdmitter consumes quota atomically or rejects with a gate error.
type QuotaAdmitter interface {
	Admit(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) (Reservation, error)
}

// AdmitterFunc adapts a function to QuotaAdmitter.
type AdmitterFunc func(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) (Reservation, error)

func (f AdmitterFunc) Admit(ctx context.Context, t *tenant.Tenant, r tenant.Resource, amount int64) (Reservation, error) {
	return f(ctx, t, r, amount)
}

// GuardMiddleware turns tenancy.Guard decisions into HTTP rejections.
type GuardMiddleware struct {
	guard  Authorizer
	acl    tenancy.OperatorACL
	quota  QuotaAdmitter
	logger logger.Interface
}

func NewGuardMiddleware(guard Authorizer, acl tenancy.OperatorACL, quota QuotaAdmitter, logger logger.Interface) *GuardMiddleware {
	return &GuardMiddleware{guard: guard, acl: acl, quota: quota, logger: logger}
}

// Authorize runs the lifecycle, permission, quota and feature gates for
// action against the request's tenant. A quota demand is only checked here;
// handlers that write admit it themselves, or use Admit.
func (m *GuardMiddleware) Authorize(action tenancy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.check(c, action) {
			c.Next()
		}
	}
}

// Admit is Authorize followed by admission of the action's quota demand.
// The reservation is committed when the handler answers 2xx and released
// otherwise, panics included.
func (m *GuardMiddleware) Admit(action tenancy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.admit(c, action)
	}
}

// AuthorizeUpload is Admit with a storage demand equal to the size of the
// files attached to the request. Run UploadBytes first.
func (m *GuardMiddleware) AuthorizeUpload(action tenancy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := action
		if size := c.GetInt64(constants.ContextKeyUploadBytes); size > 0 {
			a = action.WithQuota(tenant.ResourceStorage, size)
		}
		m.admit(c, a)
	}
}

func (m *GuardMiddleware) admit(c *gin.Context, action tenancy.Action) {
	if !m.check(c, action) {
		return
	}
	if action.Quota == nil {
		c.Next()
		return
	}
	if m.quota == nil {
		m.logger.Errorw("quota admission requested without an admitter", "resource", action.Quota.Resource)
		utils.AbortWithError(c, errors.NewInternalError("quota admission unavailable"))
		return
	}

	ctx := c.Request.Context()
	demand := *action.Quota
	res, err := m.quota.Admit(ctx, tenancy.TenantFrom(ctx), demand.Resource, demand.Amount)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := res.Release(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warnw("failed to release quota reservation",
				"resource", demand.Resource,
				"amount", demand.Amount,
				"error", err,
			)
		}
	}()

	c.Next()

	if status := c.Writer.Status(); status >= 200 && status < 300 {
		res.Commit()
		committed = true
	}
}

// check runs the gate chain and aborts the request on denial.
func (m *GuardMiddleware) check(c *gin.Context, action tenancy.Action) bool {
	ctx := c.Request.Context()
	req := tenancy.Request{
		Actor:  tenancy.PrincipalFrom(ctx),
		Tenant: tenancy.TenantFrom(ctx),
		Action: action,
	}
	if err := m.guard.Authorize(ctx, req); err != nil {
		if ge := errors.GetGateError(err); ge != nil {
			m.logger.Debugw("request rejected by tenancy gate",
				"code", string(ge.ErrorCode),
				"resource", action.Resource,
				"action", string(action.Verb),
			)
		}
		utils.AbortWithError(c, err)
		return false
	}
	return true
}

// RequireOperator admits platform operators whose console role grants
// resource:verb. It needs no tenant.
func (m *GuardMiddleware) RequireOperator(resource, verb string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := tenancy.PrincipalFrom(c.Request.Context())
		if actor == nil {
			utils.AbortWithError(c, errors.NewAuthRequiredError())
			return
		}
		if !actor.Operator || m.acl == nil {
			utils.AbortWithError(c, errors.NewPermissionDeniedError(resource, verb))
			return
		}
		ok, err := m.acl.Allowed(actor.OperatorRole, resource, verb)
		if err != nil {
			m.logger.Errorw("operator ACL check failed", "user_sid", actor.UserSID, "error", err)
			utils.AbortWithError(c, errors.NewInternalError("permission check failed"))
			return
		}
		if !ok {
			m.logger.Warnw("operator permission denied",
				"user_sid", actor.UserSID,
				"role", actor.OperatorRole,
				"resource", resource,
				"action", verb,
			)
			utils.AbortWithError(c, errors.NewPermissionDeniedError(resource, verb))
			return
		}
		c.Next()
	}
}

// TargetTenant binds the tenant named by the :param path segment for
// operator routes. Soft-deleted tenants read as not found.
func TargetTenant(loader TenantLoader, param string, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.Param(param)
		t, err := loader.GetBySID(c.Request.Context(), sid)
		if err != nil {
			log.Errorw("failed to load target tenant", "tenant_sid", sid, "error", err)
			utils.AbortWithError(c, err)
			return
		}
		if t == nil || !t.IsActive() {
			utils.AbortWithError(c, errors.NewTenantNotFoundError())
			return
		}
		c.Set(constants.ContextKeyTenant, t)
		c.Set(constants.ContextKeyTenantID, t.SID())
		c.Request = c.Request.WithContext(tenancy.WithTenant(c.Request.Context(), t))
		c.Next()
	}
}
