package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/application/user/dto"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// LoginUseCase exchanges credentials for a session token bound to the
// member's tenant. Every failure reads as invalid credentials.
type LoginUseCase struct {
	userRepo user.Repository
	roleRepo permission.RoleRepository
	tenants  TenantLookup
	hasher   user.PasswordHasher
	sessions SessionIssuer
	now      func() time.Time
	logger   logger.Interface
}

func NewLoginUseCase(
	userRepo user.Repository,
	roleRepo permission.RoleRepository,
	tenants TenantLookup,
	hasher user.PasswordHasher,
	sessions SessionIssuer,
	logger logger.Interface,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo: userRepo,
		roleRepo: roleRepo,
		tenants:  tenants,
		hasher:   hasher,
		sessions: sessions,
		now:      biztime.NowUTC,
		logger:   logger,
	}
}

// Execute signs u in. When the request was addressed to a tenant host,
// hostTenant is that tenant and the member must belong to it.
func (uc *LoginUseCase) Execute(ctx context.Context, hostTenant *tenant.Tenant, req dto.LoginRequest) (*dto.LoginResponse, error) {
	u, err := uc.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		uc.logger.Errorw("failed to get user by email", "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, errors.NewInvalidCredentialsError()
	}
	if err := uc.hasher.Verify(req.Password, u.PasswordHash()); err != nil {
		return nil, errors.NewInvalidCredentialsError()
	}
	if !u.IsActive() {
		return nil, errors.NewAccountInactiveError()
	}

	var (
		tenantSID string
		roleSlug  string
	)
	if u.IsOperator() {
		roleSlug = u.OperatorRole()
	} else {
		if hostTenant != nil && !u.BelongsTo(hostTenant.ID()) {
			uc.logger.Warnw("login attempt against another tenant's host",
				"user_id", u.ID(), "host_tenant_id", hostTenant.ID())
			return nil, errors.NewInvalidCredentialsError()
		}
		t, err := uc.tenants.ResolveByID(ctx, *u.TenantID())
		if err != nil {
			if errors.HasCode(err, errors.CodeTenantNotFound) {
				return nil, errors.NewInvalidCredentialsError()
			}
			return nil, fmt.Errorf("failed to resolve tenant: %w", err)
		}
		tenantSID = t.SID()

		if rid := u.RoleID(); rid != nil {
			role, err := uc.roleRepo.GetByID(ctx, t.ID(), *rid)
			if err != nil {
				return nil, fmt.Errorf("failed to get role: %w", err)
			}
			if role != nil {
				roleSlug = role.Slug()
			}
		}
	}

	token, expiresAt, err := uc.sessions.IssueSession(u.SID(), tenantSID, roleSlug, u.IsOperator())
	if err != nil {
		uc.logger.Errorw("failed to issue session", "user_id", u.ID(), "error", err)
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	// the password is known here, so upgrade hashes made at an old cost
	if uc.hasher.NeedsRehash(u.PasswordHash()) {
		if hash, err := uc.hasher.Hash(req.Password); err == nil {
			u.ReplacePasswordHash(hash)
		} else {
			uc.logger.Warnw("failed to rehash password", "user_id", u.ID(), "error", err)
		}
	}
	u.RecordLogin(uc.now())
	if err := uc.userRepo.Update(ctx, u); err != nil {
		uc.logger.Warnw("failed to record login time", "user_id", u.ID(), "error", err)
	}

	resp := &dto.LoginResponse{Token: token, ExpiresAt: expiresAt, TenantID: tenantSID}
	resp.User = dto.ToMemberResponse(u, nil)
	resp.User.Role = roleSlug
	return resp, nil
}
