package domain

import (
	"fmt"
	"time"
)

// TimestampLayout is the stored form: fixed width, UTC, so text order is time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

var parseLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp renders t in UTC with a trailing Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts the stored layout and common SQL layouts. Values
// without zone information are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
