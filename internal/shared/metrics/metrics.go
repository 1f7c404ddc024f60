// Package metrics exposes Prometheus collectors for the tenancy pipeline:
//
//   - spendwise_http_requests_total / spendwise_http_request_duration_seconds
//   - spendwise_gate_rejections_total: rejections by machine-readable code
//   - spendwise_quota_admissions_total: admissions by resource and result
//   - spendwise_audit_records_total: activity records by outcome
//   - spendwise_tenant_cache_lookups_total: directory cache hits and misses
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spendwise/spendwise/internal/shared/errors"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendwise_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spendwise_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	GateRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendwise_gate_rejections_total",
			Help: "Requests rejected by the tenancy pipeline",
		},
		[]string{"code"},
	)

	QuotaAdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendwise_quota_admissions_total",
			Help: "Quota admission attempts",
		},
		[]string{"resource", "result"},
	)

	AuditRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendwise_audit_records_total",
			Help: "Activity records by outcome (persisted, duplicate, failed, skipped)",
		},
		[]string{"outcome"},
	)

	TenantCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendwise_tenant_cache_lookups_total",
			Help: "Tenant directory cache lookups",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordGateRejection counts err under its gate code, or "other".
func RecordGateRejection(err error) {
	code := "other"
	if gateErr := errors.GetGateError(err); gateErr != nil {
		code = string(gateErr.ErrorCode)
	}
	GateRejectionsTotal.WithLabelValues(code).Inc()
}

func RecordQuotaAdmission(resource string, admitted bool) {
	result := "rejected"
	if admitted {
		result = "admitted"
	}
	QuotaAdmissionsTotal.WithLabelValues(resource, result).Inc()
}

func RecordAudit(outcome string) {
	AuditRecordsTotal.WithLabelValues(outcome).Inc()
}

func RecordTenantCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	TenantCacheLookupsTotal.WithLabelValues(result).Inc()
}
