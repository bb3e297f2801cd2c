package route

import (
	"testing"
	"time"
)

// 2026-08-24 is a Monday.
func monday(hour, min int) time.Time {
	return time.Date(2026, 8, 24, hour, min, 0, 0, time.UTC)
}

func activeWindow(start, end int, days WeekdaySet) MonitoringWindow {
	return MonitoringWindow{
		StartMinute: start,
		EndMinute:   end,
		Weekdays:    days,
		Active:      true,
	}
}

func TestIsEligibleBoundaries(t *testing.T) {
	w := activeWindow(8*60, 9*60, Monday) // 08:00-09:00

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly at start", monday(8, 0), true},
		{"strictly inside", monday(8, 30), true},
		{"last eligible minute", monday(8, 59), true},
		{"exactly at end", monday(9, 0), false},
		{"before start", monday(7, 59), false},
		{"after end", monday(10, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEligible(w, tt.now, false); got != tt.want {
				t.Fatalf("IsEligible(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestIsEligibleFailsClosed(t *testing.T) {
	w := activeWindow(8*60, 9*60, Monday)
	now := monday(8, 30)

	inactive := w
	inactive.Active = false
	if IsEligible(inactive, now, false) {
		t.Fatal("inactive window must never qualify")
	}

	wrongDay := activeWindow(8*60, 9*60, Tuesday)
	if IsEligible(wrongDay, now, false) {
		t.Fatal("monday instant must not match a tuesday-only mask")
	}

	excl := w
	excl.ExcludeHolidays = true
	if IsEligible(excl, now, true) {
		t.Fatal("holiday with exclusion must not qualify")
	}
	// holiday without exclusion still polls
	if !IsEligible(w, now, true) {
		t.Fatal("holiday without exclusion must qualify")
	}
}

func TestWeekdaySet(t *testing.T) {
	if !Weekdays.Contains(time.Friday) || Weekdays.Contains(time.Saturday) {
		t.Fatal("Weekdays must cover mon-fri only")
	}
	if got := FromWeekday(time.Sunday); got != Sunday {
		t.Fatalf("FromWeekday(Sunday) = %v, want %v", got, Sunday)
	}
	if got := FromWeekday(time.Monday); got != Monday {
		t.Fatalf("FromWeekday(Monday) = %v, want %v", got, Monday)
	}
	if !WeekdaySet(0).IsEmpty() {
		t.Fatal("zero mask must be empty")
	}
	if got := (Monday | Wednesday).String(); got != "mon,wed" {
		t.Fatalf("String() = %q", got)
	}
}

func TestNextWindowOpen(t *testing.T) {
	w := activeWindow(8*60, 9*60, Monday|Tuesday)

	// before today's opening: opens today
	got := NextWindowOpen(w, monday(6, 0))
	if want := monday(8, 0); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}

	// inside the window: now itself
	now := monday(8, 30)
	if got := NextWindowOpen(w, now); !got.Equal(now) {
		t.Fatalf("got %s, want %s", got, now)
	}

	// after today's end: tomorrow's opening
	got = NextWindowOpen(w, monday(9, 0))
	if want := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}

	// tuesday after end: wraps to next monday
	tue := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	got = NextWindowOpen(w, tue)
	if want := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}
