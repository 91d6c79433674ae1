// Package datetime provides date helpers for project plans and timelines.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/construction-pricing/pkg/constants"
)

const (
	// DateLayout is the plan date format (YYYY-MM-DD).
	DateLayout = constants.DateLayout

	// MonthLayout is the timeline month format (YYYY-MM).
	MonthLayout = constants.MonthLayout
)

// ParseDate parses a plan date. Timestamps such as "2025-03-01T00:00:00" are
// accepted and truncated to the day.
func ParseDate(date string) (time.Time, error) {
	trimmed := strings.TrimSpace(date)
	if idx := strings.IndexByte(trimmed, 'T'); idx == len(DateLayout) {
		trimmed = trimmed[:idx]
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// DurationDays returns the number of days between start and end. Unparseable
// dates and an end before the start yield 0.
func DurationDays(start, end string) float64 {
	startT, err := ParseDate(start)
	if err != nil {
		return 0
	}
	endT, err := ParseDate(end)
	if err != nil {
		return 0
	}
	if endT.Before(startT) {
		return 0
	}
	return endT.Sub(startT).Hours() / 24
}

// DurationMonths converts the project duration to average-length months,
// substituting the default duration when the project has no positive length.
func DurationMonths(start, end string) float64 {
	days := DurationDays(start, end)
	if days <= 0 {
		return constants.DefaultProjectDurationMonths
	}
	return days / constants.DaysPerMonth
}

// MonthOf returns the timeline month (YYYY-MM) containing a plan date.
func MonthOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format(MonthLayout), nil
}

// IncrementMonth returns the month following the given YYYY-MM month.
func IncrementMonth(month string) (string, error) {
	return OffsetDate(month, MonthLayout, 1)
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// MonthBeforeOrEqual reports whether first is not after second. Both are
// YYYY-MM months.
func MonthBeforeOrEqual(first, second string) (bool, error) {
	firstT, err := time.Parse(MonthLayout, first)
	if err != nil {
		return false, err
	}
	secondT, err := time.Parse(MonthLayout, second)
	if err != nil {
		return false, err
	}
	return !firstT.After(secondT), nil
}
