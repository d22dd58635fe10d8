package edifact

import (
	"fmt"
	"strings"
	"time"
)

// Date/time format codes (UN/EDIFACT 2379).
const (
	DateFormatDate            = "102" // CCYYMMDD
	DateFormatDateTime        = "203" // CCYYMMDDHHMM
	DateFormatDateTimeSeconds = "204" // CCYYMMDDHHMMSS
)

// Date/time qualifiers (UN/EDIFACT 2005) used by INVOIC.
const (
	DateQualifierDocument = "137"
	DateQualifierDelivery = "35"
)

// dateLayouts are tried in order for date strings that are not already in
// EDIFACT digit form.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006",
	"02.01.2006 15:04",
}

// FormatDate renders value in EDIFACT form and returns the matching format
// code. A time.Time at midnight becomes 102, any other time 203. Strings of
// 8, 12 or 14 digits are passed through as 102, 203 or 204.
func FormatDate(value any) (string, string, error) {
	switch v := value.(type) {
	case time.Time:
		return formatTime(v)
	case *time.Time:
		if v == nil {
			return "", "", fmt.Errorf("%w: nil time", ErrInvalidDate)
		}
		return formatTime(*v)
	case string:
		return formatDateString(v)
	default:
		return "", "", fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, value)
	}
}

func formatTime(t time.Time) (string, string, error) {
	if t.IsZero() {
		return "", "", fmt.Errorf("%w: zero time", ErrInvalidDate)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("20060102"), DateFormatDate, nil
	}
	return t.Format("200601021504"), DateFormatDateTime, nil
}

func formatDateString(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if isDigits(s) {
		switch len(s) {
		case 8:
			return s, DateFormatDate, nil
		case 12:
			return s, DateFormatDateTime, nil
		case 14:
			return s, DateFormatDateTimeSeconds, nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatTime(t)
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
