package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable reason a tenancy gate rejected a request.
type ErrorCode string

const (
	CodeTenantNotFound       ErrorCode = "TENANT_NOT_FOUND"
	CodeTenantSuspended      ErrorCode = "TENANT_SUSPENDED"
	CodeTrialExpired         ErrorCode = "TRIAL_EXPIRED"
	CodeUserLimitExceeded    ErrorCode = "USER_LIMIT_EXCEEDED"
	CodeExpenseLimitExceeded ErrorCode = "EXPENSE_LIMIT_EXCEEDED"
	CodeStorageLimitExceeded ErrorCode = "STORAGE_LIMIT_EXCEEDED"
	CodeFeatureNotAvailable  ErrorCode = "FEATURE_NOT_AVAILABLE"
	CodeTenantAccessDenied   ErrorCode = "TENANT_RESOURCE_ACCESS_DENIED"
	CodePermissionDenied     ErrorCode = "PERMISSION_DENIED"
	CodeTenantRequired       ErrorCode = "TENANT_REQUIRED"
	CodeAuthRequired         ErrorCode = "AUTHENTICATION_REQUIRED"
	CodeRateLimited          ErrorCode = "RATE_LIMITED"
)

// GateContext is the remediation data a client needs to render an
// upgrade prompt or an explanation. Zero fields are omitted.
type GateContext struct {
	Resource    string `json:"resource,omitempty"`
	Current     *int64 `json:"current,omitempty"`
	Limit       *int64 `json:"limit,omitempty"`
	Plan        string `json:"plan,omitempty"`
	DaysExpired int    `json:"days_expired,omitempty"`
	UpgradeURL  string `json:"upgrade_url,omitempty"`
	Feature     string `json:"feature,omitempty"`
}

// GateError is a structured rejection from the tenancy pipeline.
type GateError struct {
	*AppError
	ErrorCode ErrorCode
	Context   GateContext
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

func (e *GateError) Unwrap() error {
	return e.AppError
}

func newGateError(code ErrorCode, t ErrorType, status int, message string) *GateError {
	return &GateError{
		AppError:  &AppError{Type: t, Message: message, Code: status},
		ErrorCode: code,
	}
}

// NewTenantNotFoundError is also returned for hidden tenants so existence never leaks.
func NewTenantNotFoundError() *GateError {
	return newGateError(CodeTenantNotFound, ErrorTypeNotFound, http.StatusNotFound, "Tenant not found")
}

func NewTenantSuspendedError() *GateError {
	return newGateError(CodeTenantSuspended, ErrorTypeForbidden, http.StatusForbidden,
		"This organization has been suspended")
}

func NewTrialExpiredError(daysExpired int, upgradeURL string) *GateError {
	e := newGateError(CodeTrialExpired, ErrorTypePaymentRequired, http.StatusPaymentRequired,
		"Trial period has expired")
	e.Context.DaysExpired = daysExpired
	e.Context.UpgradeURL = upgradeURL
	return e
}

// NewLimitExceededError builds a quota rejection for code with its usage context.
func NewLimitExceededError(code ErrorCode, resource string, current, limit int64, plan string) *GateError {
	e := newGateError(code, ErrorTypeForbidden, http.StatusForbidden,
		fmt.Sprintf("%s limit reached for current plan", resource))
	e.Context.Resource = resource
	e.Context.Current = &current
	e.Context.Limit = &limit
	e.Context.Plan = plan
	return e
}

func NewFeatureNotAvailableError(feature, plan, upgradeURL string) *GateError {
	e := newGateError(CodeFeatureNotAvailable, ErrorTypeForbidden, http.StatusForbidden,
		"Feature not available on current plan")
	e.Context.Feature = feature
	e.Context.Plan = plan
	e.Context.UpgradeURL = upgradeURL
	return e
}

func NewTenantAccessDeniedError() *GateError {
	return newGateError(CodeTenantAccessDenied, ErrorTypeForbidden, http.StatusForbidden,
		"Access to this organization's resources is denied")
}

func NewPermissionDeniedError(resource, action string) *GateError {
	e := newGateError(CodePermissionDenied, ErrorTypeForbidden, http.StatusForbidden,
		fmt.Sprintf("Permission denied: %s:%s", resource, action))
	e.Context.Resource = resource
	return e
}

func NewTenantRequiredError() *GateError {
	return newGateError(CodeTenantRequired, ErrorTypeBadRequest, http.StatusBadRequest,
		"Tenant context is required")
}

func NewAuthRequiredError() *GateError {
	return newGateError(CodeAuthRequired, ErrorTypeUnauthorized, http.StatusUnauthorized,
		"Authentication required")
}

func NewRateLimitedError() *GateError {
	return newGateError(CodeRateLimited, ErrorTypeRateLimited, http.StatusTooManyRequests,
		"Too many requests")
}

func GetGateError(err error) *GateError {
	var gateErr *GateError
	if stderrors.As(err, &gateErr) {
		return gateErr
	}
	return nil
}

// HasCode reports whether err is a GateError carrying code.
func HasCode(err error, code ErrorCode) bool {
	gateErr := GetGateError(err)
	return gateErr != nil && gateErr.ErrorCode == code
}
