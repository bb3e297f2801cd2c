package route

import "time"

// MinuteOfDay returns wall clock minutes since midnight for t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// IsEligible decides whether the window permits a poll at nowLocal.
// Pure predicate, fails closed: an inactive window never qualifies.
// The start boundary is inclusive, the end boundary exclusive.
func IsEligible(w MonitoringWindow, nowLocal time.Time, isHoliday bool) bool {
	if !w.Active {
		return false
	}
	if isHoliday && w.ExcludeHolidays {
		return false
	}
	if !w.Weekdays.Contains(nowLocal.Weekday()) {
		return false
	}

	tod := MinuteOfDay(nowLocal)
	return tod >= w.StartMinute && tod < w.EndMinute
}
