package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidTime  = errors.New("invalid time, expected HH:MM")
	ErrInvalidValue = errors.New("invalid measurement value")
)

// ParseTimeOfDay parses "HH:MM" (or "H:MM") into minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, ErrInvalidTime
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidTime
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidTime
	}
	return h*60 + m, nil
}

// FormatMinutes returns HH:MM for minutes since midnight.
func FormatMinutes(mins int) string {
	if mins < 0 || mins > 1439 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// ParseMeasurementValue parses a user-entered value. Comma decimals are
// accepted ("82,5") since both supported locales use them.
func ParseMeasurementValue(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidValue, s)
	}
	if v <= 0 || v > 1000 {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidValue)
	}
	return v, nil
}
