package tenant

import (
	"slices"
	"sort"
)

// Settings are the plan-derived entitlements copied onto a tenant. They are
// rewritten whenever the tenant's plan, or the plan itself, changes.
type Settings struct {
	MaxUsers        int64
	MaxRecords      int64
	MaxStorageBytes int64
	Features        []string
}

// NewSettings normalizes the feature set into a sorted, de-duplicated slice.
func NewSettings(maxUsers, maxRecords, maxStorageBytes int64, features []string) Settings {
	set := make([]string, 0, len(features))
	for _, f := range features {
		if f != "" && !slices.Contains(set, f) {
			set = append(set, f)
		}
	}
	sort.Strings(set)
	return Settings{
		MaxUsers:        maxUsers,
		MaxRecords:      maxRecords,
		MaxStorageBytes: maxStorageBytes,
		Features:        set,
	}
}

// Limit returns the configured ceiling for r, Unlimited included.
func (s Settings) Limit(r Resource) int64 {
	switch r {
	case ResourceUsers:
		return s.MaxUsers
	case ResourceRecords:
		return s.MaxRecords
	case ResourceStorage:
		return s.MaxStorageBytes
	}
	return 0
}

func (s Settings) HasFeature(feature string) bool {
	return slices.Contains(s.Features, feature)
}

// Features a plan may grant.
const (
	FeatureCustomDomain = "custom_domain"
	FeatureReports      = "reports"
	FeatureAPI          = "api"
)
