package domain

import (
	"errors"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	if m, err := ParseTimeOfDay("09:30"); err != nil || m != 9*60+30 {
		t.Fatalf("09:30: got %d, %v", m, err)
	}
	if m, err := ParseTimeOfDay("0:05"); err != nil || m != 5 {
		t.Fatalf("0:05: got %d, %v", m, err)
	}
	if m, err := ParseTimeOfDay("23:59"); err != nil || m != 1439 {
		t.Fatalf("23:59: got %d, %v", m, err)
	}
	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:30:00"} {
		if _, err := ParseTimeOfDay(bad); !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("expected ErrInvalidTime for %q, got %v", bad, err)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	if got := FormatMinutes(9 * 60); got != "09:00" {
		t.Fatalf("want 09:00, got %s", got)
	}
	if got := FormatMinutes(1439); got != "23:59" {
		t.Fatalf("want 23:59, got %s", got)
	}
	if got := FormatMinutes(-5); got != "00:00" {
		t.Fatalf("want 00:00 for out of range, got %s", got)
	}
}

func TestParseMeasurementValue(t *testing.T) {
	if v, err := ParseMeasurementValue("82.5"); err != nil || v != 82.5 {
		t.Fatalf("82.5: got %v, %v", v, err)
	}
	// Comma decimal separator.
	if v, err := ParseMeasurementValue("82,5"); err != nil || v != 82.5 {
		t.Fatalf("82,5: got %v, %v", v, err)
	}
	for _, bad := range []string{"", "abc", "0", "-3", "1001"} {
		if _, err := ParseMeasurementValue(bad); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("expected ErrInvalidValue for %q, got %v", bad, err)
		}
	}
}
