package constants

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	HeaderAuthorization  = "Authorization"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXForwardedHost = "X-Forwarded-Host"

	// gin context keys
	ContextKeyRequestID   = "request_id"
	ContextKeyIdentity    = "tenant_identity"
	ContextKeyTenant      = "tenant"
	ContextKeyPrincipal   = "principal"
	ContextKeyUploadBytes = "upload_bytes"
	ContextKeyTenantID    = "tenant_id"
	ContextKeyActorID     = "actor_id"

	// Activity list bounds
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100

	// Redis key prefixes
	RedisPrefixTenant      = "spendwise:tenant:"
	RedisPrefixRateLimit   = "spendwise:ratelimit:"
	ChannelTenantChanged   = "spendwise:tenant:changed"
	ChannelActivityCreated = "spendwise:activity:created"

	ErrMsgInternalServerError = "Internal server error occurred"
)

// Table names
const (
	TableTenants         = "tenants"
	TableTenantUsages    = "tenant_usages"
	TableTenantDeletions = "tenant_deletions"
	TablePlans           = "plans"
	TableRoles           = "roles"
	TableUsers           = "users"
	TableActivities      = "activities"
	TableCasbinRules     = "casbin_rule"
)
