package route

import "testing"

func TestParseClockMinute(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"8:05", 485, false},
		{"24:00", 1440, false},
		{"25:00", 0, true},
		{"08:60", 0, true},
		{"0800", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClockMinute(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseClockMinute(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClockMinute(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseClockMinute(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatClockMinuteRoundTrip(t *testing.T) {
	for _, minute := range []int{0, 480, 539, 1439} {
		parsed, err := ParseClockMinute(FormatClockMinute(minute))
		if err != nil {
			t.Fatalf("round trip %d: %v", minute, err)
		}
		if parsed != minute {
			t.Fatalf("round trip %d = %d", minute, parsed)
		}
	}
}

func TestParseWeekdays(t *testing.T) {
	set, err := ParseWeekdays([]string{"mon", "WED", "fri"})
	if err != nil {
		t.Fatalf("parse weekdays: %v", err)
	}
	if set != Monday|Wednesday|Friday {
		t.Fatalf("set = %v", set)
	}

	if _, err := ParseWeekdays([]string{"monday"}); err == nil {
		t.Fatal("full names are not accepted")
	}
}
