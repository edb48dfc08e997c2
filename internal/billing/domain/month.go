package domain

import (
	"fmt"
	"strings"
	"time"
)

// monthLayout is the calendar month key format. A billing month is a key,
// not a timestamp.
const monthLayout = "2006-01"

// MonthOf returns the month key covering t.
func MonthOf(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// ParseMonth validates a YYYY-MM month key and returns it normalized.
func ParseMonth(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := time.Parse(monthLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, raw)
	}
	return parsed.Format(monthLayout), nil
}
