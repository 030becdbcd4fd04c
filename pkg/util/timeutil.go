package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// SinceMs reports the wall time elapsed since start in milliseconds.
func SinceMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
