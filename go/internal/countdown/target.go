package countdown

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTarget is the tournament kickoff, interpreted in DefaultTimezone.
const (
	DefaultTarget   = "December 20, 2025 09:00:00"
	DefaultTimezone = "America/New_York"
)

// Layouts without a zone are resolved in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"January 2, 2006 15:04:05",
	"January 2, 2006 15:04",
	"2006-01-02",
}

// ParseTarget parses a target instant. RFC 3339 strings keep their own
// offset; zone-less strings are read in loc (UTC when nil).
func ParseTarget(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTarget)
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized format %q", ErrInvalidTarget, s)
}
