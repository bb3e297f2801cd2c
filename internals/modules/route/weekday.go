package route

import (
	"strings"
	"time"
)

// WeekdaySet is a 7-bit day-of-week mask, bit 0 = Monday ... bit 6 = Sunday.
type WeekdaySet uint8

const (
	Monday WeekdaySet = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	Weekdays = Monday | Tuesday | Wednesday | Thursday | Friday
	Everyday = Weekdays | Saturday | Sunday
)

// FromWeekday maps time.Weekday (Sunday = 0) onto the Monday-first mask.
func FromWeekday(wd time.Weekday) WeekdaySet {
	return 1 << ((int(wd) + 6) % 7)
}

func (s WeekdaySet) Contains(wd time.Weekday) bool {
	return s&FromWeekday(wd) != 0
}

func (s WeekdaySet) IsEmpty() bool {
	return s&Everyday == 0
}

var weekdayNames = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for i, name := range weekdayNames {
		if s&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}
