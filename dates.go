package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DisplayDateFormat is used in reports only, the ledger stores real dates.
	DisplayDateFormat = "02-01-2006"
	// unixEpochSerial is 1970-01-01 in spreadsheet serial day numbering.
	unixEpochSerial = 25569
)

var dayMonthYearRegexp = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{1,4})$`)

// textDateLayouts are tried in order for text which isn't "D-M-Y" or "D/M/Y".
var textDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02.01.2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// NormalizeDate converts a statement cell value into a calendar date at UTC midnight.
// Accepts spreadsheet serial numbers, "D-M-Y"/"D/M/Y" text (2-digit years are 20YY),
// other common date text and time.Time values. Time zone-less text is read in loc.
// Empty values give zero time without error.
func NormalizeDate(value any, loc *time.Location) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case float64:
		return serialToDate(v), nil
	case int:
		return serialToDate(float64(v)), nil
	case int64:
		return serialToDate(float64(v)), nil
	case time.Time:
		// Take the day as it is seen in the value's own zone so offset never shifts it.
		return calendarDate(v.Date()), nil
	case string:
		return parseTextDate(strings.TrimSpace(v), loc)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported value %v (%T)", ErrInvalidDateFormat, value, value)
	}
}

// FormatDisplayDate renders date as DD-MM-YYYY, or empty string for zero time.
func FormatDisplayDate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DisplayDateFormat)
}

func parseTextDate(text string, loc *time.Location) (time.Time, error) {
	if text == "" {
		return time.Time{}, nil
	}

	// Serial number exported as text.
	if serial, err := strconv.ParseFloat(text, 64); err == nil {
		return serialToDate(serial), nil
	}

	if m := dayMonthYearRegexp.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		date := calendarDate(year, time.Month(month), day)
		// time.Date silently rolls "31-02" over to March.
		if date.Day() != day || int(date.Month()) != month {
			return time.Time{}, fmt.Errorf("%w: '%s' is not a valid day-month-year", ErrInvalidDateFormat, text)
		}
		return date, nil
	}

	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range textDateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return calendarDate(t.Date()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: '%s'", ErrInvalidDateFormat, text)
}

// serialToDate drops the time-of-day fraction: serial 25569 is 1970-01-01.
func serialToDate(serial float64) time.Time {
	days := int(math.Floor(serial)) - unixEpochSerial
	return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
}

func calendarDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
