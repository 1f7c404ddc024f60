package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/subscription/dto"
	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/interfaces/http/handlers"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type PlanService interface {
	UpdatePlan(ctx context.Context, actor *tenancy.Principal, slug string, req dto.UpdatePlanRequest) (*dto.UpdatePlanResponse, error)
	ListPlans(ctx context.Context) ([]*dto.PlanDTO, error)
	GetPlan(ctx context.Context, slug string) (*dto.PlanDTO, error)
}

type PlanHandler struct {
	service PlanService
	logger  logger.Interface
}

func NewPlanHandler(service PlanService, logger logger.Interface) *PlanHandler {
	return &PlanHandler{service: service, logger: logger}
}

func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", plans)
}

func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.service.GetPlan(c.Request.Context(), c.Param("slug"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", plan)
}

// Update changes a plan and re-derives the settings of every tenant on it.
func (h *PlanHandler) Update(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	resp, err := h.service.UpdatePlan(ctx, tenancy.PrincipalFrom(ctx), c.Param("slug"), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	h.logger.Infow("plan updated", "plan", c.Param("slug"), "tenants_affected", resp.TenantsAffected)
	utils.SuccessResponse(c, http.StatusOK, "Plan updated successfully", resp)
}
