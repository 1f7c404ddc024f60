package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type LoginService interface {
	Login(ctx context.Context, hostTenant *tenant.Tenant, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type AuthHandler struct {
	service LoginService
	logger  logger.Interface
}

func NewAuthHandler(service LoginService, logger logger.Interface) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// Login exchanges credentials for a session token. On a tenant host only
// that tenant's members may sign in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.Login(ctx, tenancy.TenantFrom(ctx), req)
	if err != nil {
		if ae := errors.GetAuthError(err); ae != nil && ae.SecurityEvent {
			h.logger.Warnw("login rejected", "type", string(ae.Type), "client_ip", c.ClientIP())
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", resp)
}
