package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/spendwise/spendwise/internal/shared/errors"
)

func TestRecordGateRejection(t *testing.T) {
	before := testutil.ToFloat64(GateRejectionsTotal.WithLabelValues("TENANT_SUSPENDED"))
	RecordGateRejection(errors.NewTenantSuspendedError())
	assert.Equal(t, before+1, testutil.ToFloat64(GateRejectionsTotal.WithLabelValues("TENANT_SUSPENDED")))

	other := testutil.ToFloat64(GateRejectionsTotal.WithLabelValues("other"))
	RecordGateRejection(errors.NewInternalError("boom"))
	assert.Equal(t, other+1, testutil.ToFloat64(GateRejectionsTotal.WithLabelValues("other")))
}

func TestRecordQuotaAdmission(t *testing.T) {
	before := testutil.ToFloat64(QuotaAdmissionsTotal.WithLabelValues("users", "rejected"))
	RecordQuotaAdmission("users", false)
	assert.Equal(t, before+1, testutil.ToFloat64(QuotaAdmissionsTotal.WithLabelValues("users", "rejected")))
}
