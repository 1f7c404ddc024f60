package usecases

import (
	"context"

	appactivity "github.com/spendwise/spendwise/internal/application/activity"
)

type Auditor interface {
	Record(ctx context.Context, e appactivity.Entry)
}

type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TenantInvalidator drops cached resolutions of the given tenants.
type TenantInvalidator interface {
	InvalidateIDs(ctx context.Context, ids []uint)
}
