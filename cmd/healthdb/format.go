// ABOUTME: Shared output and argument helpers for CLI commands.
// ABOUTME: Column padding, truncation, date flags, and optional-value rendering.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/harperreed/healthdb/internal/extract"
	"github.com/harperreed/healthdb/internal/models"
)

var (
	faint = color.New(color.Faint)
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
	amber = color.New(color.FgYellow)
)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// parseDay parses a date flag. Times and offsets are accepted and reduced to
// wall-clock time.
func parseDay(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("--%s is required (YYYY-MM-DD)", flag)
	}
	t, err := extract.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q (use YYYY-MM-DD)", flag, s)
	}
	return t, nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return models.FormatTime(*t)
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
