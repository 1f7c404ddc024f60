package tenant

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/application/tenant/usecases"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/shared/services"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// Dependencies wires the tenant management use cases.
type Dependencies struct {
	Tenants    tenant.Repository
	Usage      tenant.UsageRepository
	Deletions  tenant.DeletionRepository
	Plans      subscription.PlanRepository
	Roles      permission.RoleRepository
	Users      user.Repository
	Hasher     user.PasswordHasher
	Quota      usecases.QuotaAdmitter
	Reconciler usecases.UsageReconciler
	Tx         usecases.TxRunner
	Cache      usecases.TenantCacheInvalidator
	Auditor    usecases.Auditor
	Tokens     services.TokenGenerator
	Rules      usecases.ProvisionRules
}

type ServiceDDD struct {
	logger    logger.Interface
	deletions tenant.DeletionRepository

	provision    *usecases.ProvisionTenantUseCase
	changeStatus *usecases.ChangeTenantStatusUseCase
	extendTrial  *usecases.ExtendTrialUseCase
	changePlan   *usecases.ChangeTenantPlanUseCase
	customDomain *usecases.CustomDomainUseCase
	deleteTenant *usecases.DeleteTenantUseCase
	getTenant    *usecases.GetTenantUseCase
	listTenants  *usecases.ListTenantsUseCase
	usage        *usecases.UsageUseCase
}

func NewServiceDDD(d Dependencies, logger logger.Interface) *ServiceDDD {
	tokens := d.Tokens
	if tokens == nil {
		tokens = services.NewTokenGenerator()
	}
	return &ServiceDDD{
		logger:    logger,
		deletions: d.Deletions,

		provision: usecases.NewProvisionTenantUseCase(
			d.Tenants, d.Usage, d.Plans, d.Roles, d.Users, d.Hasher, d.Quota, d.Tx, d.Auditor, d.Rules, logger,
		),
		changeStatus: usecases.NewChangeTenantStatusUseCase(d.Tenants, d.Cache, d.Auditor, logger),
		extendTrial:  usecases.NewExtendTrialUseCase(d.Tenants, d.Cache, d.Auditor, logger),
		changePlan:   usecases.NewChangeTenantPlanUseCase(d.Tenants, d.Plans, d.Cache, d.Auditor, logger),
		customDomain: usecases.NewCustomDomainUseCase(d.Tenants, tokens, d.Cache, d.Auditor, logger),
		deleteTenant: usecases.NewDeleteTenantUseCase(d.Tenants, d.Deletions, d.Tx, d.Cache, logger),
		getTenant:    usecases.NewGetTenantUseCase(d.Tenants, logger),
		listTenants:  usecases.NewListTenantsUseCase(d.Tenants, logger),
		usage:        usecases.NewUsageUseCase(d.Usage, d.Reconciler, d.Auditor, logger),
	}
}

func (s *ServiceDDD) Provision(ctx context.Context, actor *tenancy.Principal, req dto.ProvisionTenantRequest) (*dto.ProvisionTenantResponse, error) {
	return s.provision.Execute(ctx, actor, req)
}

func (s *ServiceDDD) ChangeStatus(ctx context.Context, actor *tenancy.Principal, tenantSID string, action usecases.StatusAction) (*dto.TenantResponse, error) {
	return s.changeStatus.Execute(ctx, actor, tenantSID, action)
}

func (s *ServiceDDD) ExtendTrial(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.ExtendTrialRequest) (*dto.TenantResponse, error) {
	return s.extendTrial.Execute(ctx, actor, tenantSID, req)
}

func (s *ServiceDDD) ChangePlan(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.ChangePlanRequest) (*dto.TenantResponse, error) {
	return s.changePlan.Execute(ctx, actor, tenantSID, req)
}

func (s *ServiceDDD) SetCustomDomain(ctx context.Context, actor *tenancy.Principal, tenantID uint, req dto.SetCustomDomainRequest) (*dto.CustomDomainResponse, error) {
	return s.customDomain.Set(ctx, actor, tenantID, req)
}

func (s *ServiceDDD) VerifyCustomDomain(ctx context.Context, actor *tenancy.Principal, tenantID uint, req dto.VerifyCustomDomainRequest) (*dto.CustomDomainResponse, error) {
	return s.customDomain.Verify(ctx, actor, tenantID, req)
}

func (s *ServiceDDD) RemoveCustomDomain(ctx context.Context, actor *tenancy.Principal, tenantID uint) error {
	return s.customDomain.Remove(ctx, actor, tenantID)
}

func (s *ServiceDDD) Delete(ctx context.Context, actor *tenancy.Principal, tenantSID string, req dto.DeleteTenantRequest) error {
	return s.deleteTenant.Execute(ctx, actor, tenantSID, req)
}

func (s *ServiceDDD) Get(ctx context.Context, tenantSID string) (*dto.TenantResponse, error) {
	return s.getTenant.Execute(ctx, tenantSID)
}

func (s *ServiceDDD) List(ctx context.Context, req dto.ListTenantsRequest) (*dto.ListTenantsResponse, error) {
	return s.listTenants.Execute(ctx, req)
}

func (s *ServiceDDD) Usage(ctx context.Context, t *tenant.Tenant) (*dto.UsageResponse, error) {
	return s.usage.Get(ctx, t)
}

func (s *ServiceDDD) RecalculateUsage(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant) (*dto.UsageResponse, error) {
	return s.usage.Recalculate(ctx, actor, t)
}

// ListDeletions returns the platform-scope log of hard-deleted tenants, newest first.
func (s *ServiceDDD) ListDeletions(ctx context.Context, limit int) ([]*dto.DeletionResponse, error) {
	if limit <= 0 || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	items, err := s.deletions.List(ctx, limit)
	if err != nil {
		s.logger.Errorw("failed to list tenant deletions", "error", err)
		return nil, fmt.Errorf("failed to list tenant deletions: %w", err)
	}
	out := make([]*dto.DeletionResponse, 0, len(items))
	for _, d := range items {
		out = append(out, dto.ToDeletionResponse(d))
	}
	return out, nil
}
