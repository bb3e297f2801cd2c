package poll

import (
	"testing"
	"time"

	"routepulse/internals/modules/route"
)

// 2026-08-24 is a Monday.
func monday(hour, min int) time.Time {
	return time.Date(2026, 8, 24, hour, min, 0, 0, time.UTC)
}

func window0800to0900() route.MonitoringWindow {
	return route.MonitoringWindow{
		StartMinute: 8 * 60,
		EndMinute:   9 * 60,
		Weekdays:    route.Monday,
		Active:      true,
	}
}

func TestNextEligiblePollTime(t *testing.T) {
	w := window0800to0900()
	interval := 5 * time.Minute

	// no prior poll, before opening: first poll at 08:00
	next, ok := NextEligiblePollTime(w, nil, monday(7, 0), interval)
	if !ok || !next.Equal(monday(8, 0)) {
		t.Fatalf("got %s ok=%v, want 08:00", next, ok)
	}

	// chain of polls every 5 minutes
	last := monday(8, 0)
	for want := 5; want <= 55; want += 5 {
		next, ok = NextEligiblePollTime(w, &last, last, interval)
		if !ok {
			t.Fatalf("poll chain broke at %s", last)
		}
		if expect := monday(8, want); !next.Equal(expect) {
			t.Fatalf("after %s got %s, want %s", last, next, expect)
		}
		last = next
	}

	// last poll 08:55 -> 09:00 is past the exclusive end
	last = monday(8, 55)
	if _, ok = NextEligiblePollTime(w, &last, monday(8, 56), interval); ok {
		t.Fatal("08:56 with last poll 08:55 must yield no further poll today")
	}

	// delayed scheduler never polls in the past
	last = monday(8, 10)
	next, ok = NextEligiblePollTime(w, &last, monday(8, 30), interval)
	if !ok || !next.Equal(monday(8, 30)) {
		t.Fatalf("got %s ok=%v, want clamp to now 08:30", next, ok)
	}
}

func TestNextRunAcrossWindows(t *testing.T) {
	w := window0800to0900()
	interval := 5 * time.Minute

	// still inside the window: next poll wins
	last := monday(8, 10)
	next, ok := nextRunAcrossWindows([]route.MonitoringWindow{w}, &last, monday(8, 12), interval)
	if !ok || !next.Equal(monday(8, 15)) {
		t.Fatalf("got %s ok=%v, want 08:15", next, ok)
	}

	// today spent: falls to next monday's opening, never today
	last = monday(8, 55)
	next, ok = nextRunAcrossWindows([]route.MonitoringWindow{w}, &last, monday(8, 56), interval)
	if !ok {
		t.Fatal("expected a future run")
	}
	if want := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("got %s, want %s", next, want)
	}

	// earliest window of several wins
	later := route.MonitoringWindow{
		StartMinute: 17 * 60,
		EndMinute:   18 * 60,
		Weekdays:    route.Monday,
		Active:      true,
	}
	next, ok = nextRunAcrossWindows([]route.MonitoringWindow{later, w}, nil, monday(7, 0), interval)
	if !ok || !next.Equal(monday(8, 0)) {
		t.Fatalf("got %s ok=%v, want the morning window", next, ok)
	}

	// no active windows at all
	inactive := w
	inactive.Active = false
	if _, ok = nextRunAcrossWindows([]route.MonitoringWindow{inactive}, nil, monday(7, 0), interval); ok {
		t.Fatal("inactive windows must yield no run")
	}
}

func TestNextUTCMidnight(t *testing.T) {
	got := nextUTCMidnight(time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC))
	if want := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}
