package calendar

import "time"

// Schedule is a fixed weekly or monthly firing rule: either a weekday plus
// hour/minute, or the last calendar day of the month plus hour/minute.
// Matching is exact to the minute; callers are expected to evaluate schedules
// at minute granularity.
type Schedule struct {
	Weekday *time.Weekday // nil unless this is a weekday schedule
	LastDay bool          // last calendar day of the month
	Hour    int
	Minute  int
}

// Weekly builds a weekday schedule.
func Weekly(wd time.Weekday, hour, minute int) Schedule {
	return Schedule{Weekday: &wd, Hour: hour, Minute: minute}
}

// MonthlyLastDay builds a last-day-of-month schedule.
func MonthlyLastDay(hour, minute int) Schedule {
	return Schedule{LastDay: true, Hour: hour, Minute: minute}
}

// Daily builds a schedule that fires every day at the given time.
func Daily(hour, minute int) Schedule {
	return Schedule{Hour: hour, Minute: minute}
}

// Matches reports whether the projected local time lands exactly on the
// schedule's minute.
func (s Schedule) Matches(local time.Time) bool {
	if s.LastDay {
		next := local.AddDate(0, 0, 1)
		if next.Month() == local.Month() {
			return false
		}
	} else if s.Weekday != nil && local.Weekday() != *s.Weekday {
		return false
	}
	return local.Hour() == s.Hour && local.Minute() == s.Minute
}
