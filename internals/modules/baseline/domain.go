package baseline

import (
	"time"

	"github.com/google/uuid"
)

// BucketWidth is the statistical grouping interval for time of day.
const BucketWidth = 5

// Slot is one aggregated time-of-day bucket. StdDev stays nil until a
// bucket holds at least two records, a single sample has no spread.
type Slot struct {
	BucketMinute int      `json:"bucket_minute"`
	Mean         float64  `json:"mean_duration_sec"`
	StdDev       *float64 `json:"stddev_duration_sec"`
	RecordCount  int      `json:"record_count"`
}

// Response is the computed baseline for one route and weekday. An empty
// Slots list with a low SessionCount means not enough history yet, the
// caller must not read it as a failure.
type Response struct {
	RouteID      uuid.UUID `json:"route_id"`
	Weekday      string    `json:"weekday"`
	SessionCount int       `json:"session_count"`
	Slots        []Slot    `json:"slots"`
}

// Sample is the minimal projection of a poll record the aggregator needs.
type Sample struct {
	SessionID   uuid.UUID
	Provider    string
	Timezone    string
	PolledAt    time.Time
	DurationSec int32
}

// VolatilitySlot aggregates across all active routes for one provider
// and time-of-day bucket.
type VolatilitySlot struct {
	Provider     string   `json:"provider"`
	BucketMinute int      `json:"bucket_minute"`
	Mean         float64  `json:"mean_duration_sec"`
	StdDev       *float64 `json:"stddev_duration_sec"`
	RecordCount  int      `json:"record_count"`
}

// ProviderUsage is the per-provider rollup for one UTC day.
type ProviderUsage struct {
	Provider   string `json:"provider"`
	PollCount  int64  `json:"poll_count"`
	QuotaUnits int64  `json:"quota_units"`
}
