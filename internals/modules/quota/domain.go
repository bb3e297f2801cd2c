package quota

import "time"

// Status is a user's poll admission state for one UTC calendar day.
type Status struct {
	UsageDate time.Time
	Used      int32
	Limit     int32
}

func (s Status) Remaining() int32 {
	if s.Used >= s.Limit {
		return 0
	}
	return s.Limit - s.Used
}

// UTCDay truncates t to its UTC calendar date. Quota resets naturally
// at UTC midnight because the usage row is keyed on this value.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
