package domain

import "time"

// EveryDay is the day_of_week sentinel for schedules that fire daily.
const EveryDay = -1

// NotificationSchedule is a stored rule describing when a reminder fires.
// Day and Minute are immutable after creation; users delete and recreate
// instead of editing in place.
type NotificationSchedule struct {
	ID       int64
	UserID   int64
	Day      int    // EveryDay or int(time.Weekday) 0..6
	Minute   int    // minutes since midnight, 0..1439
	Timezone string // advisory label, not used for conversion
	Active   bool
	// Owner fields are populated by the due sweep so delivery does not need
	// a second lookup.
	OwnerChatID   int64
	OwnerLanguage string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Matches reports whether the schedule is due at the given weekday and
// minute of day. Inactive schedules never match; the comparison is
// minute-exact with no catch-up for missed ticks.
func (s *NotificationSchedule) Matches(day time.Weekday, minute int) bool {
	if !s.Active {
		return false
	}
	if s.Minute != minute {
		return false
	}
	return s.Day == EveryDay || s.Day == int(day)
}

// weekdayKeys maps int(time.Weekday) to i18n keys under days.*.
var weekdayKeys = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// DayKey returns the i18n key describing the schedule's day
// ("every_day" or a weekday name).
func (s *NotificationSchedule) DayKey() string {
	if s.Day == EveryDay {
		return "every_day"
	}
	if s.Day < 0 || s.Day > 6 {
		return "every_day"
	}
	return weekdayKeys[s.Day]
}
