package poll

import (
	"routepulse/internals/modules/route"
	"time"
)

// NextEligiblePollTime computes the next instant the window allows a
// poll, or ok=false when no further poll fits today.
//
// With no prior poll the answer is the later of the window opening and
// now. After a poll it is lastPollAt + interval, never earlier than now
// (a delayed scheduler must not poll in the past) and never at or past
// the window end, which is exclusive.
func NextEligiblePollTime(w route.MonitoringWindow, lastPollAt *time.Time, nowLocal time.Time, interval time.Duration) (time.Time, bool) {
	dayStart := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, nowLocal.Location())
	windowOpen := dayStart.Add(time.Duration(w.StartMinute) * time.Minute)
	windowEnd := dayStart.Add(time.Duration(w.EndMinute) * time.Minute)

	var next time.Time
	if lastPollAt == nil {
		next = windowOpen
	} else {
		next = lastPollAt.Add(interval)
	}
	if next.Before(nowLocal) {
		next = nowLocal
	}

	if !next.Before(windowEnd) {
		return time.Time{}, false
	}
	return next, true
}

// nextRunAcrossWindows picks the earliest follow-up instant over all
// active windows: another poll inside a still-open window wins,
// otherwise the soonest future window opening.
func nextRunAcrossWindows(windows []route.MonitoringWindow, lastPollAt *time.Time, nowLocal time.Time, interval time.Duration) (time.Time, bool) {
	var best time.Time
	found := false

	for _, w := range windows {
		if !w.Active {
			continue
		}

		var candidate time.Time
		if w.Weekdays.Contains(nowLocal.Weekday()) {
			if next, ok := NextEligiblePollTime(w, lastPollAt, nowLocal, interval); ok {
				candidate = next
			}
		}
		if candidate.IsZero() {
			// today is spent for this window; search from today's end
			// so NextWindowOpen lands on a future day
			dayStart := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, nowLocal.Location())
			cursor := dayStart.Add(time.Duration(w.EndMinute) * time.Minute)
			if cursor.Before(nowLocal) {
				cursor = nowLocal
			}
			candidate = route.NextWindowOpen(w, cursor)
		}

		if !found || candidate.Before(best) {
			best = candidate
			found = true
		}
	}

	return best, found
}
