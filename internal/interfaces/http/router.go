package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
	"github.com/spendwise/spendwise/internal/application/quota"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/usecases"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/interfaces/http/middleware"
)

const targetTenantParam = "id"

// Actions the built-in routes authorize. Product routes mounted on
// TenantGroup build their own.
var (
	readTenant   = tenancy.ReadAction(permission.ResourceSettings)
	manageDomain = tenancy.WriteAction(permission.ResourceSettings, permission.ActionManage).WithFeature(tenant.FeatureCustomDomain)
	readBilling  = tenancy.Action{Resource: permission.ResourceBilling, Verb: permission.ActionRead, Billing: true}

	listMembers      = tenancy.ReadAction(permission.ResourceUsers)
	createMember     = tenancy.WriteAction(permission.ResourceUsers, permission.ActionCreate).WithQuota(tenant.ResourceUsers, 1)
	deactivateMember = tenancy.WriteAction(permission.ResourceUsers, permission.ActionDelete)

	listRoles   = tenancy.ReadAction(permission.ResourceRoles)
	updateRoles = tenancy.WriteAction(permission.ResourceRoles, permission.ActionUpdate)

	readActivities = tenancy.ReadAction(permission.ResourceActivities)
	markActivities = tenancy.Action{Resource: permission.ResourceActivities, Verb: permission.ActionRead, Mutating: true}

	operatorUpdateTenant  = tenancy.WriteAction(permission.ResourceTenants, permission.ActionUpdate)
	operatorRestoreTenant = tenancy.Action{Resource: permission.ResourceTenants, Verb: permission.ActionUpdate, Mutating: true, Unsuspend: true}
	operatorBillTenant    = tenancy.Action{Resource: permission.ResourceTenants, Verb: permission.ActionUpdate, Mutating: true, Billing: true}
	operatorReadUsage     = tenancy.ReadAction(permission.ResourceUsage)
	operatorRecountUsage  = tenancy.WriteAction(permission.ResourceUsage, permission.ActionUpdate)
)

func (c *Container) setupRoutes() {
	r := c.engine
	log := c.log.Named("http")

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CustomLogger(log))
	r.Use(c.tenancyMiddleware.Resolve())
	if c.svcs.rateLimiter != nil {
		r.Use(middleware.TenantRateLimit(c.svcs.rateLimiter, log))
	}
	r.Use(middleware.ErrorHandler(log))

	r.GET("/health", c.hdlrs.health.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/auth/login", c.hdlrs.auth.Login)

	c.setupTenantRoutes()
	c.setupAdminRoutes()
}

// setupTenantRoutes mounts the self-service API of the resolved tenant.
func (c *Container) setupTenantRoutes() {
	g := c.guardMiddleware
	api := c.TenantGroup()

	api.GET("/tenant", g.Authorize(readTenant), c.hdlrs.tenant.Current)
	api.GET("/tenant/usage", g.Authorize(readBilling), c.hdlrs.tenant.Usage)
	domain := api.Group("/tenant/domain", g.Authorize(manageDomain))
	{
		domain.PUT("", c.hdlrs.tenant.SetCustomDomain)
		domain.POST("/verify", c.hdlrs.tenant.VerifyCustomDomain)
		domain.DELETE("", c.hdlrs.tenant.RemoveCustomDomain)
	}

	members := api.Group("/members")
	{
		members.GET("", g.Authorize(listMembers), c.hdlrs.members.List)
		members.POST("", g.Authorize(createMember), c.hdlrs.members.Create)
		members.DELETE("/:id", g.Authorize(deactivateMember), c.hdlrs.members.Deactivate)
	}

	roles := api.Group("/roles")
	{
		roles.GET("", g.Authorize(listRoles), c.hdlrs.roles.List)
		roles.PUT("/:slug/grants", g.Authorize(updateRoles), c.hdlrs.roles.UpdateGrants)
	}

	activities := api.Group("/activities")
	{
		activities.GET("", g.Authorize(readActivities), c.hdlrs.activities.List)
		activities.GET("/unread-count", g.Authorize(readActivities), c.hdlrs.activities.UnreadCount)
		activities.POST("/read", g.Authorize(markActivities), c.hdlrs.activities.MarkAsRead)
	}
}

// setupAdminRoutes mounts the operator console. Routes that act on one
// tenant bind it from the path and run the full gate pipeline against it;
// platform-wide routes check the operator ACL only.
func (c *Container) setupAdminRoutes() {
	g := c.guardMiddleware
	h := c.hdlrs.adminTenant

	admin := c.engine.Group("/admin", c.tenancyMiddleware.RequireAuth())

	tenants := admin.Group("/tenants")
	{
		tenants.POST("", g.RequireOperator(permission.ResourceTenants, string(permission.ActionCreate)), h.Provision)
		tenants.GET("", g.RequireOperator(permission.ResourceTenants, string(permission.ActionRead)), h.List)
		tenants.GET("/:id", g.RequireOperator(permission.ResourceTenants, string(permission.ActionRead)), h.Get)
		tenants.DELETE("/:id", g.RequireOperator(permission.ResourceTenants, string(permission.ActionDelete)), h.Delete)
	}

	target := tenants.Group("/:id", middleware.TargetTenant(c.repos.tenants, targetTenantParam, c.log.Named("middleware.target")))
	{
		target.POST("/suspend", g.Authorize(operatorUpdateTenant), h.ChangeStatus(usecases.StatusActionSuspend))
		target.POST("/unsuspend", g.Authorize(operatorRestoreTenant), h.ChangeStatus(usecases.StatusActionUnsuspend))
		target.POST("/activate", g.Authorize(operatorRestoreTenant), h.ChangeStatus(usecases.StatusActionActivate))
		target.POST("/cancel", g.Authorize(operatorUpdateTenant), h.ChangeStatus(usecases.StatusActionCancel))
		target.POST("/extend-trial", g.Authorize(operatorBillTenant), h.ExtendTrial)
		target.PUT("/plan", g.Authorize(operatorBillTenant), h.ChangePlan)
		target.GET("/usage", g.Authorize(operatorReadUsage), h.Usage)
		target.POST("/usage/recalculate", g.Authorize(operatorRecountUsage), h.RecalculateUsage)
	}

	admin.GET("/deletions", g.RequireOperator(permission.ResourceTenantDeletions, string(permission.ActionRead)), h.ListDeletions)

	plans := admin.Group("/plans")
	{
		plans.GET("", g.RequireOperator(permission.ResourcePlans, string(permission.ActionRead)), c.hdlrs.adminPlan.List)
		plans.GET("/:slug", g.RequireOperator(permission.ResourcePlans, string(permission.ActionRead)), c.hdlrs.adminPlan.Get)
		plans.PUT("/:slug", g.RequireOperator(permission.ResourcePlans, string(permission.ActionUpdate)), c.hdlrs.adminPlan.Update)
	}
}

// TenantGroup is the authenticated, tenant-bound route group. Host
// applications mount their product routes here and guard each with Guard.
func (c *Container) TenantGroup() *gin.RouterGroup {
	return c.engine.Group("/api/v1", c.tenancyMiddleware.RequireAuth(), c.tenancyMiddleware.RequireTenant())
}

// Guard exposes the gate pipeline to product routes.
func (c *Container) Guard() *middleware.GuardMiddleware {
	return c.guardMiddleware
}

// Quota is the enforcer product handlers use to admit consumption inside
// their own write transaction (Within) and to release it on deletion.
func (c *Container) Quota() *quota.Enforcer {
	return c.svcs.enforcer
}

// Recorder is the audit recorder for product events.
func (c *Container) Recorder() *appactivity.Recorder {
	return c.svcs.recorder
}

// UploadGuard consumes storage quota for the files of a multipart upload.
// The bytes stay counted only when the handler answers 2xx.
func (c *Container) UploadGuard(action tenancy.Action) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.UploadBytes(maxUploadBytes),
		c.guardMiddleware.AuthorizeUpload(action),
	}
}
