package normalizer

import (
	"fmt"
	"strings"
	"time"
)

// NaiveLayout is the wall-clock form used when a value carries no zone designator.
const NaiveLayout = "2006-01-02T15:04:05"

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDateTime parses ISO 8601 date-time text. The boolean reports whether the text
// carried an explicit zone designator; values without one are returned in UTC.
func ParseDateTime(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty datetime")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised datetime %q", s)
}

// ParseDate parses a bare calendar date such as 2024-06-14.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
}

// FormatDateTime renders t in the same shape it was read: RFC 3339 with its own offset
// when zoned, NaiveLayout otherwise.
func FormatDateTime(t time.Time, zoned bool) string {
	if zoned {
		return t.Format(time.RFC3339Nano)
	}
	return t.Format(NaiveLayout)
}
