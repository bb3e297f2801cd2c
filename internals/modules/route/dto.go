package route

import (
	"fmt"
	"strconv"
	"strings"
)

type CreateRouteRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	Provider    string `json:"provider" validate:"required"`
	Timezone    string `json:"timezone"`
}

type RouteResponse struct {
	ID          string `json:"id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Provider    string `json:"provider"`
	Timezone    string `json:"timezone"`
	Status      string `json:"status"`
}

type ListRoutesResponse struct {
	UserID string          `json:"user_id"`
	Limit  int32           `json:"limit"`
	Offset int32           `json:"offset"`
	Routes []RouteResponse `json:"routes"`
}

type CreateWindowRequest struct {
	Start           string   `json:"start" validate:"required"`    // "08:00"
	End             string   `json:"end" validate:"required"`      // "09:00"
	Weekdays        []string `json:"weekdays" validate:"required"` // ["mon","tue",...]
	ExcludeHolidays bool     `json:"exclude_holidays"`
}

type WindowResponse struct {
	ID              string `json:"id"`
	RouteID         string `json:"route_id"`
	Start           string `json:"start"`
	End             string `json:"end"`
	Weekdays        string `json:"weekdays"`
	ExcludeHolidays bool   `json:"exclude_holidays"`
	Active          bool   `json:"active"`
}

type UpdateRouteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused"`
}

type UpdateWindowRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ParseClockMinute converts "HH:MM" into minutes since midnight.
func ParseClockMinute(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// FormatClockMinute is the inverse of ParseClockMinute.
func FormatClockMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseWeekdays builds a WeekdaySet from lowercase three letter names.
func ParseWeekdays(names []string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, n := range names {
		idx := -1
		for i, known := range weekdayNames {
			if strings.EqualFold(n, known) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0, fmt.Errorf("unknown weekday %q", n)
		}
		set |= 1 << idx
	}
	return set, nil
}
