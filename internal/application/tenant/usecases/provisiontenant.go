package usecases

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/permission"
	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/id"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// ProvisionRules are the platform defaults applied to new tenants.
type ProvisionRules struct {
	ReservedSlugs []string
	DefaultPlan   string
}

type ProvisionTenantUseCase struct {
	tenantRepo tenant.Repository
	usageRepo  tenant.UsageRepository
	planRepo   subscription.PlanRepository
	roleRepo   permission.RoleRepository
	userRepo   user.Repository
	hasher     user.PasswordHasher
	quota      QuotaAdmitter
	tx         TxRunner
	auditor    Auditor
	rules      ProvisionRules
	now        func() time.Time
	logger     logger.Interface
}

func NewProvisionTenantUseCase(
	tenantRepo tenant.Repository,
	usageRepo tenant.UsageRepository,
	planRepo subscription.PlanRepository,
	roleRepo permission.RoleRepository,
	userRepo user.Repository,
	hasher user.PasswordHasher,
	quota QuotaAdmitter,
	tx TxRunner,
	auditor Auditor,
	rules ProvisionRules,
	logger logger.Interface,
) *ProvisionTenantUseCase {
	return &ProvisionTenantUseCase{
		tenantRepo: tenantRepo,
		usageRepo:  usageRepo,
		planRepo:   planRepo,
		roleRepo:   roleRepo,
		userRepo:   userRepo,
		hasher:     hasher,
		quota:      quota,
		tx:         tx,
		auditor:    auditor,
		rules:      rules,
		now:        biztime.NowUTC,
		logger:     logger,
	}
}

// resolveSlug derives the slug from the request, or from the name when none is given.
func (uc *ProvisionTenantUseCase) resolveSlug(ctx context.Context, req dto.ProvisionTenantRequest) (string, error) {
	slug := req.Slug
	if slug == "" {
		slug = tenant.NormalizeSlug(req.Name)
	} else if slug != tenant.NormalizeSlug(slug) {
		return "", errors.NewValidationError("slug must contain only lower-case letters, digits and hyphens")
	}
	if slug == "" {
		return "", errors.NewValidationError("a slug cannot be derived from the organization name")
	}
	if slices.Contains(uc.rules.ReservedSlugs, slug) {
		return "", errors.NewValidationError(tenant.ErrSlugReserved.Error(), slug)
	}

	exists, err := uc.tenantRepo.ExistsBySlug(ctx, slug)
	if err != nil {
		uc.logger.Errorw("failed to check slug", "slug", slug, "error", err)
		return "", fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return "", errors.NewConflictError(tenant.ErrSlugTaken.Error(), slug)
	}
	return slug, nil
}

func (uc *ProvisionTenantUseCase) Execute(ctx context.Context, actor *tenancy.Principal, req dto.ProvisionTenantRequest) (*dto.ProvisionTenantResponse, error) {
	slug, err := uc.resolveSlug(ctx, req)
	if err != nil {
		return nil, err
	}

	planSlug := req.Plan
	if planSlug == "" {
		planSlug = uc.rules.DefaultPlan
	}
	plan, err := uc.planRepo.GetBySlug(ctx, planSlug)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "plan", planSlug, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError(subscription.ErrPlanNotFound.Error(), planSlug)
	}
	if !plan.IsActive() {
		return nil, errors.NewValidationError(subscription.ErrPlanInactive.Error(), planSlug)
	}

	taken, err := uc.userRepo.ExistsByEmail(ctx, req.AdminEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, errors.NewConflictError(user.ErrEmailTaken.Error())
	}

	trialDays := plan.TrialDays()
	if req.TrialDays != nil {
		trialDays = *req.TrialDays
	}

	tenantSID, err := id.NewTenantID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
	}
	t, err := tenant.NewTenant(tenantSID, req.Name, slug, plan.Slug(), plan.Settings(), trialDays, uc.now())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	hash, err := uc.hasher.Hash(req.AdminPassword)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	var admin *user.User
	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.tenantRepo.Create(txCtx, t); err != nil {
			return err
		}
		if err := uc.usageRepo.Init(txCtx, t.ID(), biztime.PeriodKey(uc.now())); err != nil {
			return fmt.Errorf("failed to initialize usage: %w", err)
		}

		var adminRoleID uint
		for _, tpl := range permission.DefaultRoleTemplates() {
			roleSID, err := id.NewRoleID()
			if err != nil {
				return err
			}
			role, err := permission.NewRole(roleSID, t.ID(), tpl.Name, tpl.Slug, true, tpl.IsTenantAdmin, tpl.Grants)
			if err != nil {
				return err
			}
			if err := uc.roleRepo.Create(txCtx, role); err != nil {
				return fmt.Errorf("failed to create role %s: %w", tpl.Slug, err)
			}
			if tpl.Slug == permission.RoleSlugAdmin {
				adminRoleID = role.ID()
			}
		}

		userSID, err := id.NewUserID()
		if err != nil {
			return err
		}
		admin, err = user.NewMember(userSID, t.ID(), adminRoleID, req.AdminEmail, req.AdminName, hash)
		if err != nil {
			return errors.NewValidationError(err.Error())
		}
		if _, err := uc.quota.Admit(txCtx, t, tenant.ResourceUsers, 1); err != nil {
			return err
		}
		return uc.userRepo.Create(txCtx, admin)
	})
	if err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("organization slug or admin email already in use")
		}
		if errors.IsAppError(err) {
			return nil, err
		}
		uc.logger.Errorw("failed to provision tenant", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to provision tenant: %w", err)
	}

	uc.auditor.Record(ctx, entryFor(actor, t, activity.KindTenantCreated, tenantRef(t)))
	uc.auditor.Record(ctx, entryFor(actor, t, activity.KindUserCreated,
		activity.EntityRef{Type: "user", ID: admin.SID(), Name: admin.Name()}))

	uc.logger.Infow("tenant provisioned", "tenant_id", t.ID(), "slug", slug, "plan", plan.Slug(), "trial_days", trialDays)

	return &dto.ProvisionTenantResponse{
		Tenant: dto.ToTenantResponse(t),
		Admin:  dto.AdminResponse{ID: admin.SID(), Email: admin.Email(), Name: admin.Name()},
	}, nil
}
