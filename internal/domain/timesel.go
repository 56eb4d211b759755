package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinDate is the earliest date the archive serves.
const MinDate = "1940-01-01"

var (
	strictTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	looseTimePattern  = regexp.MustCompile(`^\s*(\d{1,2}):(\d{1,2})\s*$`)
)

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// IsClockTime reports whether s is a strict 24-hour HH:MM value.
func IsClockTime(s string) bool {
	return strictTimePattern.MatchString(s)
}

// ValidSelection reports whether date is a real calendar date not later than
// today and hhmm is a strict HH:MM time.
func (c *Clock) ValidSelection(date, hhmm string) bool {
	if _, err := ParseDate(date); err != nil {
		return false
	}
	if date > c.Today() {
		return false
	}
	return IsClockTime(hhmm)
}

// NormalizeClockTime parses H:MM or HH:MM, clamping the hour to 0-23 and the
// minute to 0-59. Unparseable input returns ok=false.
func NormalizeClockTime(s string) (string, bool) {
	m := looseTimePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%02d:%02d", min(hour, 23), min(minute, 59)), true
}

// ClampDate bounds date to [lower, upper]. Unparseable input returns upper.
func ClampDate(date, lower, upper string) string {
	if _, err := ParseDate(date); err != nil {
		return upper
	}
	if date < lower {
		return lower
	}
	if date > upper {
		return upper
	}
	return date
}
