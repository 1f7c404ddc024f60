package tenant

import "time"

// Usage is a snapshot of a tenant's consumption counters. Records counts only
// the billing month identified by RecordsPeriod (YYYYMM).
type Usage struct {
	Users              int64
	Records            int64
	RecordsPeriod      int
	StorageBytes       int64
	LastRecalculatedAt *time.Time
}

// Current returns the counter for r as seen in period. A records counter
// from an earlier period reads as zero.
func (u Usage) Current(r Resource, period int) int64 {
	switch r {
	case ResourceUsers:
		return u.Users
	case ResourceRecords:
		if u.RecordsPeriod != period {
			return 0
		}
		return u.Records
	case ResourceStorage:
		return u.StorageBytes
	}
	return 0
}
