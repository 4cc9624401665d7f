// Package normalize converts raw bank export fields into canonical values.
package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ISODate is the canonical date layout.
const ISODate = "2006-01-02"

// dateLayouts are tried in order before the permissive fallback.
var dateLayouts = []string{
	"2006-01-02", // YYYY-MM-DD
	"02.01.2006", // DD.MM.YYYY
	"01/02/2006", // MM/DD/YYYY
	"02-01-2006", // DD-MM-YYYY
	"2006/01/02", // YYYY/MM/DD
}

// ParseDate parses raw into a UTC calendar day. It reports false when no
// layout and no fallback heuristic accepts the value.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(strings.Trim(raw, `"'`))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return Day(t), true
}

// NormalizeDate returns raw as an ISO date string.
func NormalizeDate(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.Format(ISODate), true
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
