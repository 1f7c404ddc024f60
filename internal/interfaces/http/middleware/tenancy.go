package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/domain/user"
	"github.com/spendwise/spendwise/internal/infrastructure/auth"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/logger"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

type SessionVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type TenantResolver interface {
	Resolve(ctx context.Context, id tenancy.Identity) (*tenant.Tenant, error)
}

type ActorLoader interface {
	GetBySID(ctx context.Context, sid string) (*user.User, error)
}

// TenancyMiddleware binds every request to its actor and tenant. Handlers
// behind it read both with tenancy.PrincipalFrom and tenancy.TenantFrom.
type TenancyMiddleware struct {
	rules          tenancy.HostRules
	directory      TenantResolver
	sessions       SessionVerifier
	actors         ActorLoader
	overrideHeader string
	logger         logger.Interface
}

func NewTenancyMiddleware(
	rules tenancy.HostRules,
	directory TenantResolver,
	sessions SessionVerifier,
	actors ActorLoader,
	overrideHeader string,
	logger logger.Interface,
) *TenancyMiddleware {
	return &TenancyMiddleware{
		rules:          rules,
		directory:      directory,
		sessions:       sessions,
		actors:         actors,
		overrideHeader: overrideHeader,
		logger:         logger,
	}
}

// bearerToken reports the token in the Authorization header. A header that is
// present but not a bearer credential is an error.
func bearerToken(c *gin.Context) (string, bool, error) {
	header := c.GetHeader(constants.HeaderAuthorization)
	if header == "" {
		return "", false, nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", true, errors.NewTokenInvalidError("invalid authorization header format")
	}
	return strings.TrimSpace(token), true, nil
}

// Resolve verifies the session, if any, classifies the request and looks the
// tenant up. No tenant is ever substituted for one that does not resolve.
func (m *TenancyMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		in := tenancy.RequestIdentity{
			Host:          c.Request.Host,
			ForwardedHost: c.GetHeader(constants.HeaderXForwardedHost),
			Path:          c.Request.URL.Path,
		}
		if m.overrideHeader != "" {
			in.OverrideSlug = c.GetHeader(m.overrideHeader)
		}

		var principal *tenancy.Principal
		token, present, err := bearerToken(c)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		if present {
			claims, err := m.sessions.Verify(token)
			if err != nil {
				m.logger.Warnw("failed to verify session token", "client_ip", c.ClientIP(), "error", err)
				utils.AbortWithError(c, errors.NewTokenInvalidError())
				return
			}
			if principal, err = m.loadPrincipal(ctx, claims); err != nil {
				utils.AbortWithError(c, err)
				return
			}
			in.Claims = claims.SessionClaims()
		}

		id := m.rules.Extract(in)
		c.Set(constants.ContextKeyIdentity, id)

		var t *tenant.Tenant
		if id.HasTenantCandidate() {
			t, err = m.directory.Resolve(ctx, id)
			if err != nil {
				if errors.GetGateError(err) == nil {
					m.logger.Errorw("failed to resolve tenant", "kind", id.Kind.String(), "error", err)
				}
				utils.AbortWithError(c, err)
				return
			}
		}

		if principal != nil && !principal.Operator {
			if err := m.checkBinding(in, principal, t); err != nil {
				utils.AbortWithError(c, err)
				return
			}
		}

		if principal != nil {
			ctx = tenancy.WithPrincipal(ctx, principal)
			c.Set(constants.ContextKeyPrincipal, principal)
			c.Set(constants.ContextKeyActorID, principal.UserSID)
		}
		if t != nil {
			ctx = tenancy.WithTenant(ctx, t)
			c.Set(constants.ContextKeyTenant, t)
			c.Set(constants.ContextKeyTenantID, t.SID())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// loadPrincipal rebuilds the actor from its record so deactivation takes
// effect before the token expires.
func (m *TenancyMiddleware) loadPrincipal(ctx context.Context, claims *auth.Claims) (*tenancy.Principal, error) {
	u, err := m.actors.GetBySID(ctx, claims.Subject)
	if err != nil {
		m.logger.Errorw("failed to load session actor", "user_sid", claims.Subject, "error", err)
		return nil, errors.NewInternalError("failed to load session")
	}
	if u == nil {
		return nil, errors.NewTokenInvalidError("session actor no longer exists")
	}
	if !u.IsActive() {
		return nil, errors.NewAccountInactiveError()
	}
	if u.IsOperator() != claims.Operator {
		m.logger.Warnw("security event: session kind does not match actor", "user_sid", u.SID())
		return nil, errors.NewTokenInvalidError()
	}
	return tenancy.NewPrincipal(u), nil
}

// checkBinding rejects a member whose own tenant differs from the one the
// session names, or whose request is addressed to another tenant's host.
func (m *TenancyMiddleware) checkBinding(in tenancy.RequestIdentity, p *tenancy.Principal, t *tenant.Tenant) error {
	deny := func(reason string) error {
		m.logger.Warnw("security event: actor tenant does not match request tenant",
			"reason", reason,
			"user_sid", p.UserSID,
			"actor_tenant_id", p.TenantID,
			"host", in.Host,
		)
		return errors.NewTenantAccessDeniedError()
	}

	if t == nil || p.TenantID == 0 || p.TenantID != t.ID() {
		return deny("session tenant")
	}

	in.Claims = nil
	host := m.rules.Extract(in)
	switch host.Kind {
	case tenancy.KindSubdomain:
		if host.Slug != t.Slug() {
			return deny("subdomain")
		}
	case tenancy.KindCustomDomain:
		dom := t.CustomDomain()
		if dom == nil || !t.DomainVerified() || *dom != host.Host {
			return deny("custom domain")
		}
	case tenancy.KindOperatorHost:
		return deny("operator host")
	}
	return nil
}

// RequireAuth rejects anonymous requests.
func (m *TenancyMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenancy.PrincipalFrom(c.Request.Context()) == nil {
			utils.AbortWithError(c, errors.NewAuthRequiredError())
			return
		}
		c.Next()
	}
}

// RequireTenant rejects requests that did not resolve to a tenant.
func (m *TenancyMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenancy.TenantFrom(c.Request.Context()) == nil {
			utils.AbortWithError(c, errors.NewTenantRequiredError())
			return
		}
		c.Next()
	}
}
