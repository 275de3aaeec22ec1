package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var startDateRegex = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)

// ParseStartDate reads a YYYY[-/]M[-/]D date out of dateStr.
// Empty strings, the all-zero placeholder and impossible calendar dates are rejected.
func ParseStartDate(dateStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" || strings.HasPrefix(dateStr, "0000") {
		return time.Time{}, false
	}

	match := startDateRegex.FindStringSubmatch(dateStr)
	if match == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])

	//time.Date normalizes 2026-02-30 into March; treat that as invalid
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// InWindow reports whether dateStr parses to a day inside [min, max], both ends included.
func InWindow(dateStr string, min, max time.Time) bool {
	date, ok := ParseStartDate(dateStr)
	if !ok {
		return false
	}
	return !date.Before(dayOf(min)) && !date.After(dayOf(max))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
