package accounts

import "time"

// IsWithinThresholdPeriod reports whether t happened less than window ago.
// A zero t always falls outside the window.
func IsWithinThresholdPeriod(t time.Time, window time.Duration) bool {
	if t.IsZero() {
		return false
	}
	return time.Since(t) < window
}

// IsOutsideThresholdPeriod is the complement of IsWithinThresholdPeriod.
func IsOutsideThresholdPeriod(t time.Time, window time.Duration) bool {
	return !IsWithinThresholdPeriod(t, window)
}
