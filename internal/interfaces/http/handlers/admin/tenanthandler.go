// Package admin holds the platform-operator console handlers.
package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/application/tenant/usecases"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/interfaces/http/handlers"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type TenantService interface {
	Provision(ctx context.Context, actor *tenancy.Principal, req dto.ProvisionTenantRequest) (*dto.ProvisionTenantResponse, error)
	ChangeStatus(ctx context.Context, actor *tenancy.Principal, tenantSID string, action usecases.StatusAction) (*dto.TenantResponse, error)
	ExtendTrial(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.ExtendTrialRequest) (*dto.TenantResponse, error)
	ChangePlan(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.ChangePlanRequest) (*dto.TenantResponse, error)
	Delete(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.DeleteTenantRequest) error
	Get(ctx context.Context, tenantSID string) (*dto.TenantResponse, error)
	List(ctx context.Context, req dto.ListTenantsRequest) (*dto.ListTenantsResponse, error)
	Usage(ctx context.Context, t *tenant.Tenant) (*dto.UsageResponse, error)
	RecalculateUsage(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant) (*dto.UsageResponse, error)
	ListDeletions(ctx context.Context, limit int) ([]*dto.DeletionResponse, error)
}

type TenantHandler struct {
	service TenantService
	logger  logger.Interface
}

func NewTenantHandler(service TenantService, logger logger.Interface) *TenantHandler {
	return &TenantHandler{service: service, logger: logger}
}

// Provision creates a tenant with its usage row and first admin.
func (h *TenantHandler) Provision(c *gin.Context) {
	var req dto.ProvisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.Provision(ctx, tenancy.PrincipalFrom(ctx), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, resp, "Tenant provisioned successfully")
}

func (h *TenantHandler) List(c *gin.Context) {
	var req dto.ListTenantsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	resp, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *TenantHandler) Get(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// ChangeStatus returns the handler for one lifecycle transition.
func (h *TenantHandler) ChangeStatus(action usecases.StatusAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		resp, err := h.service.ChangeStatus(ctx, tenancy.PrincipalFrom(ctx), c.Param("id"), action)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Tenant status updated", resp)
	}
}

func (h *TenantHandler) ExtendTrial(c *gin.Context) {
	var req dto.ExtendTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.ExtendTrial(ctx, tenancy.PrincipalFrom(ctx), c.Param("id"), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Trial extended", resp)
}

func (h *TenantHandler) ChangePlan(c *gin.Context) {
	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.ChangePlan(ctx, tenancy.PrincipalFrom(ctx), c.Param("id"), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Plan changed", resp)
}

// Delete hard-deletes a tenant and everything it owns.
func (h *TenantHandler) Delete(c *gin.Context) {
	var req dto.DeleteTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	actor := tenancy.PrincipalFrom(ctx)
	if err := h.service.Delete(ctx, actor, c.Param("id"), req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	h.logger.Infow("tenant deleted", "tenant_sid", c.Param("id"), "operator_sid", actor.UserSID)
	utils.NoContentResponse(c)
}

// Usage and RecalculateUsage expect TargetTenant to have bound the tenant.
func (h *TenantHandler) Usage(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.Usage(ctx, tenancy.TenantFrom(ctx))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *TenantHandler) RecalculateUsage(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.RecalculateUsage(ctx, tenancy.PrincipalFrom(ctx), tenancy.TenantFrom(ctx))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Usage recalculated", resp)
}

func (h *TenantHandler) ListDeletions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	resp, err := h.service.ListDeletions(c.Request.Context(), limit)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}
