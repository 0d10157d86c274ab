package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout used by the archive and by the master file
const TimestampLayout = "2006-01-02 15:04:05 -0700"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a created_at value in any of the accepted layouts.
// Values without a zone are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatTimestamp renders t in TimestampLayout, in UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
