package session

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	// Pending exists only between row creation and the first recorded
	// poll; a route+date with no row at all is implicitly pending.
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// MonitoringSession is the unique record of one day's monitoring
// activity for a route. At most one row exists per (RouteID, Date).
type MonitoringSession struct {
	ID              uuid.UUID
	RouteID         uuid.UUID
	Date            time.Time // the route-local calendar date, stored as a bare date
	State           State
	FirstPollAt     *time.Time
	LastPollAt      *time.Time
	PollCount       int32
	QuotaConsumed   int32
	HolidayExcluded bool
}

// PollRecord is one provider response (or its absence) owned by a
// session. Immutable after creation except soft delete and payload
// scrubbing by the retention job.
type PollRecord struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	UserID      uuid.UUID
	PolledAt    time.Time
	DurationSec int32
	DistanceM   int32
	Provider    string
	Rerouted    bool
	Deleted     bool
	RawPayload  []byte
}

type RecordPollCmd struct {
	SessionID   uuid.UUID
	UserID      uuid.UUID
	PolledAt    time.Time
	DurationSec int32
	DistanceM   int32
	Provider    string
	Rerouted    bool
	RawPayload  []byte
	Units       int32 // quota units, currently always 1 per poll
}
