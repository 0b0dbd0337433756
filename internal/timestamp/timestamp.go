// Package timestamp parses the heterogeneous timestamps stored by the collectors.
package timestamp

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

// isoLayouts are the ISO 8601 shapes the collectors write. Fractional seconds
// are accepted after the seconds field without being named in the layout.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	models.DateLayout,
}

var (
	isoPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	epoch     = regexp.MustCompile(`^\d+$`)
)

// Parse parses a collector timestamp. ISO 8601 input must match one of the
// collector layouts exactly; anything else (unix seconds or milliseconds,
// "Jan 2, 2006 3:04 PM", ...) goes through dateparse. Naive times are UTC.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if isoPrefix.MatchString(raw) {
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
				return t, nil
			}
		}
		// dateparse would stop at the date and drop the rest
		return time.Time{}, fmt.Errorf("malformed timestamp %q", raw)
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", raw, err)
	}
	if epoch.MatchString(raw) {
		t = t.UTC()
	}
	return t, nil
}

// CalendarDate returns the YYYY-MM-DD date of a timestamp in its own offset
func CalendarDate(raw string) (string, error) {
	t, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return t.Format(models.DateLayout), nil
}
