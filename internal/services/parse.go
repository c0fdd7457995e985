package services

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayDateLayout renders dates as weekday, month, zero-padded day and year.
const DisplayDateLayout = "Mon Jan 02 2006"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
	"2006/01/02",
	"01/02/2006",
	DisplayDateLayout,
	"Mon, 02 Jan 2006 15:04:05 MST",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate parses the calendar date formats clients commonly send. Inputs
// without a zone are interpreted as UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a date in DisplayDateLayout, in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DisplayDateLayout)
}

var (
	errNotNumber  = errors.New("not a number")
	errOutOfRange = errors.New("out of range")
)

// parseInteger reads the leading integer of a numeric string, so "12.9"
// is 12 and "1e3" is 1. The whole input must still be a number: "12abc"
// and "" fail with errNotNumber. Integers outside 32 bits fail with
// errOutOfRange.
func parseInteger(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if !isNumeric(raw) {
		return 0, errNotNumber
	}

	if hex, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		value, err := strconv.ParseInt(hex, 16, 64)
		if err != nil || value > math.MaxInt32 {
			return 0, errOutOfRange
		}
		return int(value), nil
	}

	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		// ".5", "Inf" and "NaN" have no leading integer.
		return 0, errNotNumber
	}

	value, err := strconv.ParseInt(raw[:end], 10, 64)
	if err != nil || value > math.MaxInt32 || value < math.MinInt32 {
		return 0, errOutOfRange
	}
	return int(value), nil
}

// isNumeric reports whether raw is a complete decimal or hexadecimal number.
func isNumeric(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, "_pP") {
		return false
	}
	if hex, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		if hex == "" {
			return false
		}
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdef", r) {
				return false
			}
		}
		return true
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}
