package route

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusDeleted Status = "deleted"
)

type CreateRouteCmd struct {
	UserID      uuid.UUID
	Origin      string
	Destination string
	Provider    string
	Timezone    string
}

type Route struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Origin      string
	Destination string
	Provider    string
	Timezone    string
	Status      Status
	CreatedAt   time.Time
}

// Location resolves the route's IANA timezone, falling back to UTC when
// the stored name is unparseable.
func (r Route) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type CreateWindowCmd struct {
	RouteID         uuid.UUID
	StartMinute     int
	EndMinute       int
	Weekdays        WeekdaySet
	ExcludeHolidays bool
}

type UpdateWindowCmd struct {
	RouteID  uuid.UUID
	WindowID uuid.UUID
	Active   bool
}

// MonitoringWindow is a recurring daily time range during which a route
// may be polled. Start and end are wall clock minutes since midnight in
// the route's timezone; end is exclusive and must stay within the same
// day (no overnight wrap).
type MonitoringWindow struct {
	ID              uuid.UUID
	RouteID         uuid.UUID
	StartMinute     int
	EndMinute       int
	Weekdays        WeekdaySet
	ExcludeHolidays bool
	Active          bool
}
