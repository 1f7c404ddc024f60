// Package biztime computes business-calendar boundaries.
// Storage and transport are UTC; the business timezone only decides where a
// day or billing month begins.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const DefaultTimezone = "UTC"

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init sets the business timezone. Only the first call has an effect.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone, initializing it to UTC when unset.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize: %v", err))
		}
	}
	return bizLocation
}

func NowUTC() time.Time {
	return time.Now().UTC()
}

// StartOfDayUTC returns the start of t's business day, in UTC.
func StartOfDayUTC(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, Location()).UTC()
}

// StartOfMonthUTC returns the start of t's business month, in UTC.
func StartOfMonthUTC(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month(), 1, 0, 0, 0, 0, Location()).UTC()
}

// StartOfNextMonthUTC is the exclusive upper bound of t's business month.
func StartOfNextMonthUTC(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month()+1, 1, 0, 0, 0, 0, Location()).UTC()
}

// PeriodKey identifies the billing month containing t as YYYYMM.
func PeriodKey(t time.Time) int {
	b := t.In(Location())
	return b.Year()*100 + int(b.Month())
}

// DaysBetween counts whole business days from a to b, zero when b is not after a.
func DaysBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	start := StartOfDayUTC(a)
	end := StartOfDayUTC(b)
	days := int(end.Sub(start).Hours() / 24)
	if days == 0 {
		return 1
	}
	return days
}
