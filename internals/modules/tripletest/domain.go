package tripletest

import (
	"time"

	"github.com/google/uuid"
)

// Shot is one independent provider fetch inside a comparison run.
type Shot struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	ShotIndex   int
	OffsetSec   int
	FiredAt     *time.Time
	Success     bool
	DurationSec *int32
	DistanceM   *int32
	ErrorCode   string
}

// Session is an ad-hoc comparison run, not tied to any route. The
// aggregate fields stay nil until every shot has resolved, and stay nil
// forever when no shot succeeds.
type Session struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Origin         string
	Destination    string
	Provider       string
	ScheduledAt    time.Time
	IdealShotIndex *int
	AvgDurationSec *float64
	AvgDistanceM   *float64
	CreatedAt      time.Time
	Shots          []Shot
}

type RunCmd struct {
	UserID      uuid.UUID
	Origin      string
	Destination string
	Provider    string
	ScheduledAt time.Time
	OffsetsSec  []int
}
