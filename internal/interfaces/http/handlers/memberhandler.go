package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type MemberService interface {
	CreateMember(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant, req dto.CreateMemberRequest) (*dto.MemberResponse, error)
	DeactivateMember(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant, memberSID string) error
	ListMembers(ctx context.Context, tenantID uint) ([]*dto.MemberResponse, error)
}

// MemberHandler serves the resolved tenant's member directory.
type MemberHandler struct {
	service MemberService
	logger  logger.Interface
}

func NewMemberHandler(service MemberService, logger logger.Interface) *MemberHandler {
	return &MemberHandler{service: service, logger: logger}
}

func (h *MemberHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	members, err := h.service.ListMembers(ctx, tenancy.TenantFrom(ctx).ID())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", members)
}

func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	member, err := h.service.CreateMember(ctx, tenancy.PrincipalFrom(ctx), tenancy.TenantFrom(ctx), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, member, "Member created successfully")
}

func (h *MemberHandler) Deactivate(c *gin.Context) {
	ctx := c.Request.Context()
	memberSID := c.Param("id")
	if err := h.service.DeactivateMember(ctx, tenancy.PrincipalFrom(ctx), tenancy.TenantFrom(ctx), memberSID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Member deactivated", nil)
}
