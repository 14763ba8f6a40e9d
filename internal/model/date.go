package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and display format of calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD only.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// NormalizeDate reduces backend dates ("2024-12-28", "2024-12-28T00:00:00.000Z")
// to YYYY-MM-DD. Unparseable input is returned trimmed.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return s[:len(DateLayout)]
		}
	}
	return s
}

// To12Hour converts "HH:MM" to "h:MM AM/PM". Input it cannot read is returned as is.
func To12Hour(hhmm string) string {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return hhmm
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return hhmm
	}
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	adjusted := hour % 12
	if adjusted == 0 {
		adjusted = 12
	}
	return fmt.Sprintf("%d:%s %s", adjusted, parts[1], period)
}

// FormatSlot renders a slot ("09:30") or a range ("09:00-09:30") in 12-hour form.
func FormatSlot(slot string) string {
	start, end, ok := strings.Cut(slot, "-")
	if !ok {
		return To12Hour(slot)
	}
	return To12Hour(start) + " - " + To12Hour(end)
}
