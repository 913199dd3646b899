package model

import (
	"fmt"
	"time"
)

const isoMillisLayout = "2006-01-02T15:04:05.000Z"

// ToDateTime parses an ISO 8601 timestamp. Both the "Z" suffix and explicit
// offsets are accepted; a timestamp without a zone is treated as UTC.
func ToDateTime(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("not a valid ISO 8601 datetime: %q", value)
}

// FromDateTime formats a timestamp as ISO 8601 in UTC with the "Z" suffix.
func FromDateTime(ts time.Time) string {
	return ts.UTC().Format("2006-01-02T15:04:05Z")
}

// SimulationID formats a launch instant as the simulation identifier: an
// ISO 8601 UTC timestamp with millisecond precision.
func SimulationID(ts time.Time) string {
	return ts.UTC().Format(isoMillisLayout)
}
