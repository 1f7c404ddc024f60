package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type TenantSelfService interface {
	Usage(ctx context.Context, t *tenant.Tenant) (*dto.UsageResponse, error)
	SetCustomDomain(ctx context.Context, actor *tenancy.Principal, tenantID uint, req dto.SetCustomDomainRequest) (*dto.CustomDomainResponse, error)
	VerifyCustomDomain(ctx context.Context, actor *tenancy.Principal, tenantID uint, req dto.VerifyCustomDomainRequest) (*dto.CustomDomainResponse, error)
	RemoveCustomDomain(ctx context.Context, actor *tenancy.Principal, tenantID uint) error
}

// TenantHandler serves the resolved tenant to its own members.
type TenantHandler struct {
	service TenantSelfService
	logger  logger.Interface
}

func NewTenantHandler(service TenantSelfService, logger logger.Interface) *TenantHandler {
	return &TenantHandler{service: service, logger: logger}
}

func (h *TenantHandler) Current(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", dto.ToTenantResponse(tenancy.TenantFrom(c.Request.Context())))
}

// Usage reports current consumption against the plan limits.
func (h *TenantHandler) Usage(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.service.Usage(ctx, tenancy.TenantFrom(ctx))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *TenantHandler) SetCustomDomain(c *gin.Context) {
	var req dto.SetCustomDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.SetCustomDomain(ctx, tenancy.PrincipalFrom(ctx), tenancy.TenantFrom(ctx).ID(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Publish the verification token to activate the domain", resp)
}

func (h *TenantHandler) VerifyCustomDomain(c *gin.Context) {
	var req dto.VerifyCustomDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.VerifyCustomDomain(ctx, tenancy.PrincipalFrom(ctx), tenancy.TenantFrom(ctx).ID(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Domain verified", resp)
}

func (h *TenantHandler) RemoveCustomDomain(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.service.RemoveCustomDomain(ctx, tenancy.PrincipalFrom(ctx), tenancy.TenantFrom(ctx).ID()); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}
