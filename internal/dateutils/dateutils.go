// Package dateutils provides the date parsing used by the statement import
// pipeline. Bank exports disagree on date formats, so parsing tries a fixed,
// ordered list and the first match wins.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Common date format constants used throughout the application.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02/01/2006"
	DateLayoutUS       = "01/02/2006"
)

// statementFormats is the ordered list of formats tried by ParseDate.
// ISO comes first so ambiguous strings resolve to it; the European
// day-first form is tried before the US month-first form.
var statementFormats = []string{
	DateLayoutISO,      // 2024-01-15
	DateLayoutEuropean, // 15/01/2024
	DateLayoutUS,       // 01/15/2024
	"2006/01/02",       // 2024/01/15
	"02-01-2006",       // 15-01-2024
	"02.01.2006",       // 15.01.2024
}

// ParseDate attempts to parse a date string using the supported statement
// formats, in order. The first successful format wins.
func ParseDate(dateStr string) (time.Time, error) {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range statementFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// SupportedFormats returns the layouts ParseDate tries, in order.
func SupportedFormats() []string {
	formats := make([]string, len(statementFormats))
	copy(formats, statementFormats)
	return formats
}

// frenchMonths maps French month names (accented and unaccented spellings)
// to month numbers.
var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"decembre":  time.December,
}

var frenchDateRe = buildFrenchDateRe()

func buildFrenchDateRe() *regexp.Regexp {
	names := make([]string, 0, len(frenchMonths))
	for name := range frenchMonths {
		names = append(names, name)
	}
	return regexp.MustCompile(`(?i)^(\d{1,2})\s+(` + strings.Join(names, "|") + `)\s+(\d{4})`)
}

// ParseFrenchDate parses a date like "12 février 2025" from the start of a
// line. The month table covers accented and unaccented spellings.
func ParseFrenchDate(line string) (time.Time, bool) {
	m := frenchDateRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	month, ok := frenchMonths[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(m[3])
	if err != nil {
		return time.Time{}, false
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days ("31 février" becomes March 3);
	// reject anything that did not round-trip.
	if date.Day() != day || date.Month() != month {
		return time.Time{}, false
	}

	return date, true
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}
