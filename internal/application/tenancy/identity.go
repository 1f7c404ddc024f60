// Package tenancy binds requests to tenants and decides whether an action may
// proceed: identity extraction, directory lookup, lifecycle gating,
// permission, quota and feature checks.
package tenancy

import (
	"net"
	"strings"

	"github.com/spendwise/spendwise/internal/shared/config"
)

// IdentityKind classifies what a request says about its tenant.
type IdentityKind int

const (
	KindNone IdentityKind = iota
	KindSubdomain
	KindCustomDomain
	KindActor
	KindOperatorHost
)

func (k IdentityKind) String() string {
	switch k {
	case KindSubdomain:
		return "subdomain"
	case KindCustomDomain:
		return "custom_domain"
	case KindActor:
		return "actor"
	case KindOperatorHost:
		return "operator_host"
	default:
		return "none"
	}
}

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	UserSID   string
	TenantSID string
	Role      string
	Operator  bool
}

// RequestIdentity is the transport-level input to extraction.
type RequestIdentity struct {
	Host          string
	ForwardedHost string
	OverrideSlug  string
	Path          string
	Claims        *SessionClaims
}

// Identity is the classification of a request. Only the fields matching Kind
// are set. For operator sessions Target carries the tenant the operator is
// addressing, derived from the lower-precedence rules.
type Identity struct {
	Kind      IdentityKind
	Slug      string
	Host      string
	TenantSID string
	ActorSID  string
	Role      string
	Operator  bool
	Target    *Identity
	Public    bool
}

// HasTenantCandidate reports whether resolution should look a tenant up.
func (i Identity) HasTenantCandidate() bool {
	switch i.Kind {
	case KindSubdomain, KindCustomDomain:
		return true
	case KindActor:
		if i.Operator {
			return i.Target != nil && i.Target.HasTenantCandidate()
		}
		return i.TenantSID != ""
	}
	return false
}

// HostRules is the pure classifier for request identity.
type HostRules struct {
	apexDomains         []string
	operatorHosts       map[string]struct{}
	reserved            map[string]struct{}
	allowOverrideHeader bool
	trustForwardedHost  bool
	publicPaths         []string
}

func NewHostRules(cfg config.TenancyConfig) HostRules {
	r := HostRules{
		operatorHosts:       make(map[string]struct{}, len(cfg.OperatorHosts)),
		reserved:            make(map[string]struct{}, len(cfg.ReservedSubdomains)),
		allowOverrideHeader: cfg.AllowOverrideHeader,
		trustForwardedHost:  cfg.TrustForwardedHost,
		publicPaths:         cfg.PublicPaths,
	}
	for _, apex := range cfg.ApexDomains {
		if apex = normalizeHost(apex); apex != "" {
			r.apexDomains = append(r.apexDomains, apex)
		}
	}
	for _, h := range cfg.OperatorHosts {
		r.operatorHosts[normalizeHost(h)] = struct{}{}
	}
	for _, label := range cfg.ReservedSubdomains {
		r.reserved[strings.ToLower(strings.TrimSpace(label))] = struct{}{}
	}
	return r
}

// Extract classifies in. Precedence: session claims, override header,
// platform subdomain, custom domain.
func (r HostRules) Extract(in RequestIdentity) Identity {
	public := r.isPublicPath(in.Path)

	if c := in.Claims; c != nil {
		id := Identity{
			Kind:     KindActor,
			ActorSID: c.UserSID,
			Role:     c.Role,
			Public:   public,
		}
		if c.Operator {
			id.Operator = true
			target := r.fromTransport(in)
			if target.Kind != KindNone {
				id.Target = &target
			}
			return id
		}
		id.TenantSID = c.TenantSID
		return id
	}

	id := r.fromTransport(in)
	id.Public = public
	return id
}

func (r HostRules) fromTransport(in RequestIdentity) Identity {
	if r.allowOverrideHeader {
		if slug := strings.ToLower(strings.TrimSpace(in.OverrideSlug)); slug != "" {
			if _, reserved := r.reserved[slug]; !reserved {
				return Identity{Kind: KindSubdomain, Slug: slug}
			}
		}
	}

	host := in.Host
	if r.trustForwardedHost && in.ForwardedHost != "" {
		// first hop only
		host, _, _ = strings.Cut(in.ForwardedHost, ",")
	}
	host = normalizeHost(host)
	if host == "" {
		return Identity{Kind: KindNone}
	}

	if _, ok := r.operatorHosts[host]; ok {
		return Identity{Kind: KindOperatorHost, Host: host}
	}

	for _, apex := range r.apexDomains {
		if host == apex {
			return Identity{Kind: KindNone}
		}
		if label, ok := strings.CutSuffix(host, "."+apex); ok {
			// only the first label names a tenant; deeper names are not ours
			if label == "" || strings.Contains(label, ".") {
				return Identity{Kind: KindNone}
			}
			if _, reserved := r.reserved[label]; reserved {
				return Identity{Kind: KindNone}
			}
			return Identity{Kind: KindSubdomain, Slug: label}
		}
	}

	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return Identity{Kind: KindNone}
	}
	return Identity{Kind: KindCustomDomain, Host: host}
}

func (r HostRules) isPublicPath(path string) bool {
	for _, p := range r.publicPaths {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

// normalizeHost lower-cases host and strips any port and trailing dot.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return strings.TrimSuffix(host, ".")
}
