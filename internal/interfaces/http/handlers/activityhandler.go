package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/activity/dto"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/activity"
	domainpermission "github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type ActivityService interface {
	ListRecent(ctx context.Context, tenantID uint, viewer activity.Viewer, limit int) ([]*dto.ActivityResponse, error)
	UnreadCount(ctx context.Context, tenantID uint, viewer activity.Viewer) (*dto.UnreadCountResponse, error)
	MarkAsRead(ctx context.Context, tenantID uint, viewer activity.Viewer, req dto.MarkAsReadRequest) (*dto.MarkAsReadResponse, error)
}

// AdminChecker reports whether actor holds its tenant's admin role.
type AdminChecker interface {
	IsTenantAdmin(ctx context.Context, actor *tenancy.Principal) (bool, error)
}

type ActivityHandler struct {
	service ActivityService
	admins  AdminChecker
	logger  logger.Interface
}

func NewActivityHandler(service ActivityService, admins AdminChecker, logger logger.Interface) *ActivityHandler {
	return &ActivityHandler{service: service, admins: admins, logger: logger}
}

func (h *ActivityHandler) viewer(ctx context.Context) (activity.Viewer, error) {
	actor := tenancy.PrincipalFrom(ctx)
	if actor == nil {
		return activity.Viewer{}, nil
	}
	v := activity.Viewer{UserID: actor.UserID, IsOperator: actor.Operator}
	if !actor.Operator {
		isAdmin, err := h.admins.IsTenantAdmin(ctx, actor)
		if err != nil {
			h.logger.Errorw("failed to resolve viewer role", "user_sid", actor.UserSID, "error", err)
			return v, err
		}
		v.IsTenantAdmin = isAdmin
	}
	return v, nil
}

func (h *ActivityHandler) List(c *gin.Context) {
	var req dto.ListActivitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BindError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = constants.DefaultActivityLimit
	}

	ctx := c.Request.Context()
	v, err := h.viewer(ctx)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	items, err := h.service.ListRecent(ctx, tenancy.TenantFrom(ctx).ID(), v, req.Limit)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", items)
}

func (h *ActivityHandler) UnreadCount(c *gin.Context) {
	ctx := c.Request.Context()
	v, err := h.viewer(ctx)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	resp, err := h.service.UnreadCount(ctx, tenancy.TenantFrom(ctx).ID(), v)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// MarkAsRead marks the listed activities read, or every visible one when
// the list is empty.
func (h *ActivityHandler) MarkAsRead(c *gin.Context) {
	var req dto.MarkAsReadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BindError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	v, err := h.viewer(ctx)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	resp, err := h.service.MarkAsRead(ctx, tenancy.TenantFrom(ctx).ID(), v, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// RoleAdminChecker answers AdminChecker from the role repository.
type RoleAdminChecker struct {
	roles domainpermission.RoleRepository
}

func NewRoleAdminChecker(roles domainpermission.RoleRepository) *RoleAdminChecker {
	return &RoleAdminChecker{roles: roles}
}

func (r *RoleAdminChecker) IsTenantAdmin(ctx context.Context, actor *tenancy.Principal) (bool, error) {
	return tenancy.IsTenantAdmin(ctx, r.roles, actor)
}
