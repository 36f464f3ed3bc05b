package calendar

import (
	"testing"
	"time"
)

func mustCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := New("Europe/Madrid")
	if err != nil {
		t.Fatalf("new calendar: %v", err)
	}
	return cal
}

func TestWeekStartKey(t *testing.T) {
	cal := mustCalendar(t)

	tests := []struct {
		name    string
		instant time.Time
		want    string
	}{
		{
			name:    "midweek",
			instant: time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC),
			want:    "2024-06-03",
		},
		{
			name: "sunday belongs to the running week",
			// Madrid is UTC+2 in June: 21:59Z is Sunday 23:59 local.
			instant: time.Date(2024, 6, 9, 21, 59, 0, 0, time.UTC),
			want:    "2024-06-03",
		},
		{
			name: "local midnight rolls to the next week",
			// 22:30Z is already Monday 00:30 in Madrid.
			instant: time.Date(2024, 6, 9, 22, 30, 0, 0, time.UTC),
			want:    "2024-06-10",
		},
		{
			name:    "monday early morning stays in its own week",
			instant: time.Date(2024, 6, 2, 22, 30, 0, 0, time.UTC), // Monday 00:30 local
			want:    "2024-06-03",
		},
		{
			name: "dst transition sunday",
			// Clocks jump forward in Madrid on 2024-03-31.
			instant: time.Date(2024, 3, 31, 0, 30, 0, 0, time.UTC),
			want:    "2024-03-25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.WeekStartKey(tt.instant); got != tt.want {
				t.Errorf("WeekStartKey(%v) = %q, want %q", tt.instant, got, tt.want)
			}
		})
	}
}

func TestWeekStartIsMidnightMonday(t *testing.T) {
	cal := mustCalendar(t)

	start := cal.WeekStart(time.Date(2024, 6, 7, 15, 0, 0, 0, time.UTC))
	if start.Weekday() != time.Monday {
		t.Errorf("weekday = %v, want Monday", start.Weekday())
	}
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("week start not at midnight: %v", start)
	}
}

func TestWeekEnd(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := WeekEnd(start)
	want := time.Date(2024, 6, 9, 23, 59, 59, 0, time.UTC)
	if !end.Equal(want) {
		t.Errorf("WeekEnd = %v, want %v", end, want)
	}
}

func TestWeekDeadlineAndReprogram(t *testing.T) {
	cal := mustCalendar(t)
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	deadline := cal.WeekDeadline(start)
	if want := time.Date(2024, 6, 9, 20, 0, 0, 0, time.UTC); !deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", deadline, want)
	}

	reprogram := cal.ReprogramInstant(start)
	if want := time.Date(2024, 6, 9, 21, 0, 0, 0, time.UTC); !reprogram.Equal(want) {
		t.Errorf("reprogram = %v, want %v", reprogram, want)
	}
}

func TestCustomDeadline(t *testing.T) {
	cal, err := New("Europe/Madrid", WithDeadline(ClockTime{Weekday: time.Saturday, Hour: 18, Minute: 30}))
	if err != nil {
		t.Fatalf("new calendar: %v", err)
	}
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	deadline := cal.WeekDeadline(start)
	if want := time.Date(2024, 6, 8, 18, 30, 0, 0, time.UTC); !deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", deadline, want)
	}
}

func TestMonthWeekStarts(t *testing.T) {
	cal := mustCalendar(t)

	// June 2024 starts on a Saturday and ends on a Sunday, so the first week
	// reaches back into May and the last week is fully contained.
	got := cal.MonthWeekStarts(2024, time.June)
	want := []string{"2024-05-27", "2024-06-03", "2024-06-10", "2024-06-17", "2024-06-24"}
	if len(got) != len(want) {
		t.Fatalf("got %d week starts %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("week %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseWeekKey(t *testing.T) {
	if _, err := ParseWeekKey("2024-06-03"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}

	for _, key := range []string{"", "2024-6-3", "03-06-2024", "2024-13-40", "2024-06-03T00:00"} {
		if _, err := ParseWeekKey(key); err == nil {
			t.Errorf("ParseWeekKey(%q) accepted, want error", key)
		}
	}
}

func TestNewRejectsUnknownZone(t *testing.T) {
	if _, err := New("Mars/Olympus_Mons"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestLastWorkingDay(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.June, 28},  // June 30 is a Sunday
		{2024, time.July, 31},  // July 31 is a Wednesday
		{2024, time.March, 29}, // March 31 is a Sunday
	}
	for _, tt := range tests {
		got := LastWorkingDay(tt.year, tt.month)
		if got.Day() != tt.want {
			t.Errorf("LastWorkingDay(%d, %v) = %d, want %d", tt.year, tt.month, got.Day(), tt.want)
		}
		if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("LastWorkingDay(%d, %v) fell on %v", tt.year, tt.month, wd)
		}
	}
}

func TestIsLastWorkingDay(t *testing.T) {
	if !IsLastWorkingDay(time.Date(2024, 6, 28, 9, 0, 0, 0, time.UTC)) {
		t.Error("June 28 2024 should be the last working day")
	}
	if IsLastWorkingDay(time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)) {
		t.Error("June 30 2024 is a Sunday, not a working day")
	}
}
