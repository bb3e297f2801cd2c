package holiday

import (
	"fmt"
	"time"
)

// Calendar answers whether a calendar date is a public holiday. Dates
// come from configuration; the polling core only ever consumes the
// boolean.
type Calendar struct {
	dates map[string]struct{} // keyed YYYY-MM-DD
}

func NewCalendar(dates []string) (*Calendar, error) {
	m := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", d, err)
		}
		m[d] = struct{}{}
	}
	return &Calendar{dates: m}, nil
}

func (c *Calendar) IsHoliday(date time.Time) bool {
	_, ok := c.dates[date.Format("2006-01-02")]
	return ok
}
