// Package timeunit provides conversions between event time (nanoseconds,
// as produced by bag recordings) and the store's native record timestamp
// unit (microseconds since Unix epoch, UTC).
//
// Two integer timescales appear throughout the pipeline:
//
//   - int64 nanoseconds: message event time inside a clip and on the
//     remapped session timeline.
//   - int64 microseconds: the timestamp a record is written under. The store
//     allows exactly one record per (entry, microsecond), which is why the
//     allocator in package tsalloc exists.
//
// A value of 0 means "not set".
package timeunit

import (
	"fmt"
	"time"
)

// UsPerSecond is the number of store units in one second.
const UsPerSecond = 1_000_000

// UsFromNs truncates an event time in nanoseconds to store units.
// Event times are non-negative by contract.
func UsFromNs(ns int64) int64 {
	return ns / 1_000
}

// NsFromUs converts store units back to nanoseconds.
func NsFromUs(us int64) int64 {
	return us * 1_000
}

// NowNs returns the current wall clock as nanoseconds since Unix epoch.
func NowNs() int64 {
	return time.Now().UnixNano()
}

// FromTimeNs converts a time.Time to nanoseconds since Unix epoch.
// Returns 0 for the zero time.
func FromTimeNs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// ToTimeUs converts store units to time.Time.
// Returns the zero time if us is 0.
func ToTimeUs(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us)
}

// FormatUs renders store units as RFC3339 with microsecond precision for
// display. Returns empty string if us is 0.
func FormatUs(us int64) string {
	if us == 0 {
		return ""
	}
	return time.UnixMicro(us).UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}

// DurationNs converts a duration to whole nanoseconds.
func DurationNs(d time.Duration) int64 {
	return d.Nanoseconds()
}

// SecondsNs converts a second count (possibly fractional) to nanoseconds.
func SecondsNs(s float64) int64 {
	return int64(s * float64(time.Second))
}

// ValidateUs checks that a store timestamp is non-negative and not
// unreasonably far in the future (year 3000 cutoff).
func ValidateUs(us int64) error {
	if us < 0 {
		return fmt.Errorf("timestamp cannot be negative: %d", us)
	}
	if us > 32503680000000000 {
		return fmt.Errorf("timestamp too far in future: %d", us)
	}
	return nil
}
