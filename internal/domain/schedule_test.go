package domain

import (
	"testing"
	"time"
)

func TestMatches_DailyFiresOnAnyDay(t *testing.T) {
	s := &NotificationSchedule{Day: EveryDay, Minute: 9 * 60, Active: true}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !s.Matches(d, 9*60) {
			t.Fatalf("daily schedule should match on %v", d)
		}
	}
}

func TestMatches_MinuteExact(t *testing.T) {
	s := &NotificationSchedule{Day: EveryDay, Minute: 9 * 60, Active: true}
	if s.Matches(time.Monday, 9*60+1) {
		t.Fatal("09:01 must not match a 09:00 schedule")
	}
	if s.Matches(time.Monday, 9*60-1) {
		t.Fatal("08:59 must not match a 09:00 schedule")
	}
}

func TestMatches_SpecificDay(t *testing.T) {
	s := &NotificationSchedule{Day: int(time.Friday), Minute: 18 * 60, Active: true}
	if !s.Matches(time.Friday, 18*60) {
		t.Fatal("expected match on Friday 18:00")
	}
	if s.Matches(time.Thursday, 18*60) {
		t.Fatal("must not match on Thursday")
	}
}

func TestMatches_InactiveNeverFires(t *testing.T) {
	s := &NotificationSchedule{Day: EveryDay, Minute: 0, Active: false}
	for d := time.Sunday; d <= time.Saturday; d++ {
		for _, m := range []int{0, 1, 12 * 60, 1439} {
			if s.Matches(d, m) {
				t.Fatalf("inactive schedule matched %v %s", d, FormatMinutes(m))
			}
		}
	}
}

func TestDayKey(t *testing.T) {
	s := &NotificationSchedule{Day: EveryDay}
	if got := s.DayKey(); got != "every_day" {
		t.Fatalf("want every_day, got %s", got)
	}
	s.Day = int(time.Monday)
	if got := s.DayKey(); got != "monday" {
		t.Fatalf("want monday, got %s", got)
	}
	s.Day = int(time.Sunday)
	if got := s.DayKey(); got != "sunday" {
		t.Fatalf("want sunday, got %s", got)
	}
}
