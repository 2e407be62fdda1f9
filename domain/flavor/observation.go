// Package flavor defines the dataset contract for flavor-of-the-day
// analytics: immutable observations, the columnar dataset view every
// analysis consumes, and label-aligned probability distributions.
package flavor

import "time"

// Observation is a single flavor-of-the-day fact: one store served one
// flavor on one calendar date. At most one observation may exist per
// (store, date) pair.
type Observation struct {
	Store       string
	Date        time.Time
	Title       string
	Description string
}

// DateOnly normalizes a timestamp to UTC midnight. All observation dates
// are stored in this form so day arithmetic is exact.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day gap from a to b (positive when b is
// later). Both arguments are expected in DateOnly form.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// DowIndex maps a weekday to the 0..6 Monday-first index the pattern
// analyses use.
func DowIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
