// Package dates holds the day-granular bound parsing shared by report
// and order listings.
package dates

import (
	"fmt"
	"time"
)

// ParseDay parses a YYYY-MM-DD bound into ms since epoch; endOfDay
// shifts it to the last instant of that day for inclusive upper bounds.
// An empty value parses to zero, meaning unbounded.
func ParseDay(v string, endOfDay bool) (int64, error) {
	if v == "" {
		return 0, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", v, err)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return t.UnixMilli(), nil
}
