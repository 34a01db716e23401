// ABOUTME: Timestamp parsing for export dates.
// ABOUTME: Offsets are stripped and the wall-clock reading is kept as UTC.
package extract

import (
	"fmt"
	"strings"
	"time"
)

// exportLayout is the export's native form, e.g. "2024-01-15 08:30:00 -0800".
const exportLayout = "2006-01-02 15:04:05"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an export timestamp. A trailing offset is discarded without
// being applied, so "08:30:00 -0800" and "08:30:00 +0100" both become 08:30:00.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	fields := strings.Fields(s)
	if len(fields) >= 2 {
		if t, err := time.Parse(exportLayout, fields[0]+" "+fields[1]); err == nil {
			return t, nil
		}
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
