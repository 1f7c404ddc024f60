package user

import (
	"context"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/application/user/usecases"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	domainUser "github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// ServiceDDD orchestrates member management and sign-in.
type ServiceDDD struct {
	createMemberUC     *usecases.CreateMemberUseCase
	deactivateMemberUC *usecases.DeactivateMemberUseCase
	listMembersUC      *usecases.ListMembersUseCase
	loginUC            *usecases.LoginUseCase
	logger             logger.Interface
}

func NewServiceDDD(
	userRepo domainUser.Repository,
	roleRepo permission.RoleRepository,
	tenants usecases.TenantLookup,
	hasher domainUser.PasswordHasher,
	sessions usecases.SessionIssuer,
	quota usecases.MemberQuota,
	tx usecases.TxRunner,
	auditor usecases.Auditor,
	logger logger.Interface,
) *ServiceDDD {
	return &ServiceDDD{
		createMemberUC:     usecases.NewCreateMemberUseCase(userRepo, roleRepo, hasher, quota, auditor, logger),
		deactivateMemberUC: usecases.NewDeactivateMemberUseCase(userRepo, quota, tx, auditor, logger),
		listMembersUC:      usecases.NewListMembersUseCase(userRepo, roleRepo, logger),
		loginUC:            usecases.NewLoginUseCase(userRepo, roleRepo, tenants, hasher, sessions, logger),
		logger:             logger,
	}
}

func (s *ServiceDDD) CreateMember(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant, req dto.CreateMemberRequest) (*dto.MemberResponse, error) {
	return s.createMemberUC.Execute(ctx, actor, t, req)
}

func (s *ServiceDDD) DeactivateMember(ctx context.Context, actor *tenancy.Principal, t *tenant.Tenant, memberSID string) error {
	return s.deactivateMemberUC.Execute(ctx, actor, t, memberSID)
}

func (s *ServiceDDD) ListMembers(ctx context.Context, tenantID uint) ([]*dto.MemberResponse, error) {
	return s.listMembersUC.Execute(ctx, tenantID)
}

// Login signs a user in; hostTenant is the tenant the request was addressed to, if any.
func (s *ServiceDDD) Login(ctx context.Context, hostTenant *tenant.Tenant, req dto.LoginRequest) (*dto.LoginResponse, error) {
	return s.loginUC.Execute(ctx, hostTenant, req)
}
