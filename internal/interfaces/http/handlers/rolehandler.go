package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/permission"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type RoleService interface {
	ListRoles(ctx context.Context, tenantID uint) ([]*permission.RoleResponse, error)
	UpdateGrants(ctx context.Context, actor *tenancy.Principal, tenantID uint, slug string, req permission.UpdateGrantsRequest) (*permission.RoleResponse, error)
}

type RoleHandler struct {
	service RoleService
	logger  logger.Interface
}

func NewRoleHandler(service RoleService, logger logger.Interface) *RoleHandler {
	return &RoleHandler{service: service, logger: logger}
}

func (h *RoleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	roles, err := h.service.ListRoles(ctx, tenancy.TenantFrom(ctx).ID())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", roles)
}

// UpdateGrants replaces a role's grants. The next request by any holder
// is evaluated against the new grants.
func (h *RoleHandler) UpdateGrants(c *gin.Context) {
	var req permission.UpdateGrantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	role, err := h.service.UpdateGrants(ctx, tenancy.PrincipalFrom(ctx), tenancy.TenantFrom(ctx).ID(), c.Param("slug"), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Role updated successfully", role)
}
