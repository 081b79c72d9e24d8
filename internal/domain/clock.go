package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Times of day are decimal hours (8.5 is 08:30).
const (
	StartOfDay = 0.0
	EndOfDay   = 24.0
)

// Clock converts an hour and minute pair into decimal hours.
func Clock(hour, minute int) float64 {
	return float64(hour) + float64(minute)/60
}

// ParseClock parses "HH:MM" (24 hour) or "EOD" into decimal hours.
func ParseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "EOD") {
		return EndOfDay, nil
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("parse clock %q: expected HH:MM", s)
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("parse clock %q: invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: invalid minute", s)
	}

	return Clock(h, m), nil
}

// FormatClock renders decimal hours as "HH:MM", rounding to the nearest minute.
func FormatClock(h float64) string {
	if math.IsInf(h, 1) {
		return "--:--"
	}
	total := int(math.Round(h * 60))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
