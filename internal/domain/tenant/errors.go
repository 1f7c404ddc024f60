package tenant

import (
	"errors"
	"fmt"
)

var (
	ErrTenantNotFound           = errors.New("tenant not found")
	ErrSlugTaken                = errors.New("tenant slug already taken")
	ErrSlugReserved             = errors.New("tenant slug is reserved")
	ErrInvalidSlug              = errors.New("invalid tenant slug")
	ErrDomainTaken              = errors.New("custom domain already in use")
	ErrNoCustomDomain           = errors.New("tenant has no custom domain")
	ErrDomainVerificationFailed = errors.New("custom domain verification failed")
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrNotInTrial               = errors.New("tenant is not in trial")
)

func ErrInvalidTransition(from, to Status) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
