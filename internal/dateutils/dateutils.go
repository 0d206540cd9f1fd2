// Package dateutils provides the date parsing and date-range helpers used by
// the ingestion pipeline and the report filters.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date layouts found in bank exports.
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutISOTime   = "2006-01-02 15:04:05"
	DateLayoutUS        = "1/2/2006"
	DateLayoutUSShort   = "1/2/06"
	DateLayoutEuropean  = "2.1.2006"
	DateLayoutSlashISO  = "2006/01/02"
	DateLayoutWithMonth = "2-Jan-2006"
)

// CommonFormats is the ordered list of layouts ParseDate tries. Slash dates
// are read month first, matching US bank exports.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutISOTime,
	time.RFC3339,
	DateLayoutUS,
	DateLayoutUSShort,
	DateLayoutEuropean,
	DateLayoutSlashISO,
	DateLayoutWithMonth,
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate parses dateStr with the first matching layout of CommonFormats.
// The result is truncated to a calendar date in UTC. The matched layout is
// returned alongside.
func ParseDate(dateStr string) (time.Time, string, error) {
	clean := CleanDateString(dateStr)
	if clean == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}

	for _, layout := range CommonFormats {
		if t, err := time.Parse(layout, clean); err == nil {
			return StartOfDay(t), layout, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseISODate parses a strict YYYY-MM-DD date, as accepted on the command line.
func ParseISODate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayoutISO, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be formatted as YYYY-MM-DD: %w", dateStr, err)
	}
	return t, nil
}

// CleanDateString trims the string and collapses inner whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// StartOfDay returns the calendar date of t at midnight UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysAgo returns the date range from n days before now up to now, both as calendar dates.
func DaysAgo(now time.Time, n int) (time.Time, time.Time) {
	today := StartOfDay(now)
	return today.AddDate(0, 0, -n), today
}

// CompareDates compares two calendar dates and returns:
//
//	-1 if date1 is before date2
//	 0 if date1 is equal to date2
//	 1 if date1 is after date2
func CompareDates(date1, date2 time.Time) int {
	date1 = StartOfDay(date1)
	date2 = StartOfDay(date2)

	switch {
	case date1.Before(date2):
		return -1
	case date1.After(date2):
		return 1
	default:
		return 0
	}
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}
