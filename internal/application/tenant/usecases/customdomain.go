package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/application/tenant/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/domain/shared/services"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// TXTRecordPrefix is the DNS label under which the verification token is published.
const TXTRecordPrefix = "_spendwise-verify."

// CustomDomainUseCase manages a tenant's custom domain. A domain only
// routes requests once it has been verified.
type CustomDomainUseCase struct {
	tenantRepo tenant.Repository
	tokens     services.TokenGenerator
	cache      TenantCacheInvalidator
	auditor    Auditor
	now        func() time.Time
	logger     logger.Interface
}

func NewCustomDomainUseCase(
	tenantRepo tenant.Repository,
	tokens services.TokenGenerator,
	cache TenantCacheInvalidator,
	auditor Auditor,
	logger logger.Interface,
) *CustomDomainUseCase {
	return &CustomDomainUseCase{
		tenantRepo: tenantRepo,
		tokens:     tokens,
		cache:      cache,
		auditor:    auditor,
		now:        biztime.NowUTC,
		logger:     logger,
	}
}

func domainRef(t *tenant.Tenant, domain string) activity.EntityRef {
	return activity.EntityRef{Type: "custom_domain", ID: t.SID(), Name: domain}
}

func previousDomain(t *tenant.Tenant) string {
	if d := t.CustomDomain(); d != nil {
		return *d
	}
	return ""
}

func (uc *CustomDomainUseCase) get(ctx context.Context, tenantID uint) (*tenant.Tenant, error) {
	t, err := uc.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		uc.logger.Errorw("failed to get tenant", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if t == nil || !t.IsActive() {
		return nil, errors.NewTenantNotFoundError()
	}
	return t, nil
}

// Set replaces any existing domain with an unverified one and returns the
// token the tenant must publish.
func (uc *CustomDomainUseCase) Set(ctx context.Context, actor *tenancy.Principal, tenantID uint, req dto.SetCustomDomainRequest) (*dto.CustomDomainResponse, error) {
	t, err := uc.get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	token, err := uc.tokens.GenerateDomainToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	previous := previousDomain(t)
	if err := t.SetCustomDomain(req.Domain, token, uc.now()); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	domain := *t.CustomDomain()

	inUse, err := uc.tenantRepo.DomainInUse(ctx, domain, t.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to check custom domain: %w", err)
	}
	if inUse {
		return nil, errors.NewConflictError(tenant.ErrDomainTaken.Error(), domain)
	}

	if err := uc.tenantRepo.Update(ctx, t); err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError(tenant.ErrDomainTaken.Error(), domain)
		}
		uc.logger.Errorw("failed to set custom domain", "tenant_id", t.ID(), "domain", domain, "error", err)
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	uc.cache.Invalidate(ctx, t, previous)

	e := entryFor(actor, t, activity.KindCustomDomainSet, domainRef(t, domain))
	if previous != "" && previous != domain {
		e.Metadata = activity.NewMetadata(map[string]any{"domain": previous}, map[string]any{"domain": domain})
	}
	uc.auditor.Record(ctx, e)

	return &dto.CustomDomainResponse{
		Domain:      domain,
		Verified:    false,
		VerifyToken: token,
		TXTRecord:   TXTRecordPrefix + domain,
	}, nil
}

func (uc *CustomDomainUseCase) Verify(ctx context.Context, actor *tenancy.Principal, tenantID uint, req dto.VerifyCustomDomainRequest) (*dto.CustomDomainResponse, error) {
	t, err := uc.get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.DomainVerified() {
		return &dto.CustomDomainResponse{Domain: *t.CustomDomain(), Verified: true}, nil
	}
	if err := t.VerifyCustomDomain(req.Token, uc.now()); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := uc.tenantRepo.Update(ctx, t); err != nil {
		uc.logger.Errorw("failed to verify custom domain", "tenant_id", t.ID(), "error", err)
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	uc.cache.Invalidate(ctx, t)

	domain := *t.CustomDomain()
	uc.auditor.Record(ctx, entryFor(actor, t, activity.KindCustomDomainVerified, domainRef(t, domain)))
	uc.logger.Infow("custom domain verified", "tenant_id", t.ID(), "domain", domain)

	return &dto.CustomDomainResponse{Domain: domain, Verified: true}, nil
}

func (uc *CustomDomainUseCase) Remove(ctx context.Context, actor *tenancy.Principal, tenantID uint) error {
	t, err := uc.get(ctx, tenantID)
	if err != nil {
		return err
	}
	previous := previousDomain(t)
	if err := t.RemoveCustomDomain(uc.now()); err != nil {
		return errors.NewValidationError(err.Error())
	}
	if err := uc.tenantRepo.Update(ctx, t); err != nil {
		uc.logger.Errorw("failed to remove custom domain", "tenant_id", t.ID(), "error", err)
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	uc.cache.Invalidate(ctx, t, previous)

	uc.auditor.Record(ctx, entryFor(actor, t, activity.KindCustomDomainRemoved, domainRef(t, previous)))
	return nil
}
