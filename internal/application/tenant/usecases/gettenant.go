package usecases

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type GetTenantUseCase struct {
	tenantRepo tenant.Repository
	logger     logger.Interface
}

func NewGetTenantUseCase(tenantRepo tenant.Repository, logger logger.Interface) *GetTenantUseCase {
	return &GetTenantUseCase{tenantRepo: tenantRepo, logger: logger}
}

func (uc *GetTenantUseCase) Execute(ctx context.Context, tenantSID string) (*dto.TenantResponse, error) {
	t, err := uc.tenantRepo.GetBySID(ctx, tenantSID)
	if err != nil {
		uc.logger.Errorw("failed to get tenant", "tenant_sid", tenantSID, "error", err)
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if t == nil {
		return nil, errors.NewNotFoundError(tenant.ErrTenantNotFound.Error(), tenantSID)
	}
	return dto.ToTenantResponse(t), nil
}

type ListTenantsUseCase struct {
	tenantRepo tenant.Repository
	logger     logger.Interface
}

func NewListTenantsUseCase(tenantRepo tenant.Repository, logger logger.Interface) *ListTenantsUseCase {
	return &ListTenantsUseCase{tenantRepo: tenantRepo, logger: logger}
}

func (uc *ListTenantsUseCase) Execute(ctx context.Context, req dto.ListTenantsRequest) (*dto.ListTenantsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	tenants, total, err := uc.tenantRepo.List(ctx, tenant.ListFilter{
		Status:   tenant.Status(req.Status),
		PlanSlug: req.Plan,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		uc.logger.Errorw("failed to list tenants", "error", err)
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	out := make([]*dto.TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, dto.ToTenantResponse(t))
	}
	return &dto.ListTenantsResponse{Tenants: out, Total: total, Page: page, PageSize: size}, nil
}
