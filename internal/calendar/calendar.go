// Package calendar holds the timezone-aware date math for the weekly plan:
// projecting instants into the household zone, finding Monday week starts,
// computing deadline and reprogram instants, and enumerating the weeks that
// touch a calendar month.
package calendar

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultTimezone is the household zone all week boundaries are computed in.
const DefaultTimezone = "Europe/Madrid"

// ClockTime is a wall-clock point within a week: a weekday plus hour/minute.
// Weekday numbering follows time.Weekday (Sunday = 0).
type ClockTime struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// Calendar performs date arithmetic in a fixed time zone.
type Calendar struct {
	loc       *time.Location
	name      string
	deadline  ClockTime
	reprogram ClockTime
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithDeadline overrides the weekly deadline instant (default Sunday 20:00).
func WithDeadline(ct ClockTime) Option {
	return func(c *Calendar) { c.deadline = ct }
}

// WithReprogram overrides the weekly reprogram instant (default Sunday 21:00).
func WithReprogram(ct ClockTime) Option {
	return func(c *Calendar) { c.reprogram = ct }
}

// New creates a Calendar for the named zone. An empty name selects
// DefaultTimezone.
func New(tzName string, opts ...Option) (*Calendar, error) {
	if tzName == "" {
		tzName = DefaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tzName, err)
	}
	c := &Calendar{
		loc:       loc,
		name:      tzName,
		deadline:  ClockTime{Weekday: time.Sunday, Hour: 20},
		reprogram: ClockTime{Weekday: time.Sunday, Hour: 21},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Timezone returns the zone name the calendar was built with.
func (c *Calendar) Timezone() string { return c.name }

// LocalNow projects an absolute instant into the calendar's zone and
// re-encodes the wall-clock fields as a UTC-denominated time. All downstream
// weekday/hour comparisons operate on this projected value, so "Sunday 20:00
// in Madrid" comes out right regardless of the server's zone or DST.
func (c *Calendar) LocalNow(t time.Time) time.Time {
	lt := t.In(c.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), lt.Second(), 0, time.UTC)
}

// WeekStart returns Monday 00:00:00 of the week containing the instant,
// as a projected (UTC-denominated) time.
func (c *Calendar) WeekStart(t time.Time) time.Time {
	return startOfWeek(c.LocalNow(t))
}

// WeekStartKey formats the instant's week start as a YYYY-MM-DD key.
func (c *Calendar) WeekStartKey(t time.Time) string {
	return FormatYMD(c.WeekStart(t))
}

// startOfWeek moves a projected time back to its Monday at 00:00.
// With Sunday = 0, a Sunday belongs to the week that started six days before.
func startOfWeek(local time.Time) time.Time {
	diff := int(local.Weekday()) - 1
	if local.Weekday() == time.Sunday {
		diff = 6
	}
	d := local.AddDate(0, 0, -diff)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekEnd returns the last instant of the week (Sunday 23:59:59) for a
// week-start date.
func WeekEnd(weekStart time.Time) time.Time {
	d := weekStart.AddDate(0, 0, 6)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
}

// WeekDeadline returns the configured deadline instant within the week,
// expressed as projected wall-clock time.
func (c *Calendar) WeekDeadline(weekStart time.Time) time.Time {
	return c.clockInstant(weekStart, c.deadline)
}

// ReprogramInstant returns the instant after which missed tasks roll over to
// the next week.
func (c *Calendar) ReprogramInstant(weekStart time.Time) time.Time {
	return c.clockInstant(weekStart, c.reprogram)
}

func (c *Calendar) clockInstant(weekStart time.Time, ct ClockTime) time.Time {
	offset := int(ct.Weekday) - 1
	if ct.Weekday == time.Sunday {
		offset = 6
	}
	d := weekStart.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), ct.Hour, ct.Minute, 0, 0, time.UTC)
}

// MonthWeekStarts returns the distinct week-start keys for every calendar day
// of the month, ascending. A month's first and last weeks usually extend into
// the neighboring months.
func (c *Calendar) MonthWeekStarts(year int, month time.Month) []string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	var keys []string
	seen := make(map[string]bool)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := FormatYMD(startOfWeek(day))
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

var weekKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseWeekKey parses a YYYY-MM-DD key into a UTC midnight time.
func ParseWeekKey(key string) (time.Time, error) {
	if !weekKeyPattern.MatchString(key) {
		return time.Time{}, fmt.Errorf("invalid week key %q: want YYYY-MM-DD", key)
	}
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week key %q: %w", key, err)
	}
	return t, nil
}

// FormatYMD formats a time's date as YYYY-MM-DD.
func FormatYMD(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatMonth formats a year/month pair as YYYY-MM.
func FormatMonth(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// SameDay reports whether two projected times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LastWorkingDay returns the last non-weekend day of the month as a UTC date.
func LastWorkingDay(year int, month time.Month) time.Time {
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// IsLastWorkingDay reports whether the projected time falls on the last
// working day of its month.
func IsLastWorkingDay(local time.Time) bool {
	return SameDay(local, LastWorkingDay(local.Year(), local.Month()))
}
