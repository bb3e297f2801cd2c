package poll

import (
	"routepulse/internals/modules/session"

	"github.com/google/uuid"
)

// JobPayload travels from the schedule loop to the executor workers.
type JobPayload struct {
	RouteID uuid.UUID
}

// Outcome is what a successful ExecutePoll hands back to its caller.
type Outcome struct {
	Session session.MonitoringSession
	Record  session.PollRecord
}

type ExecutePollResponse struct {
	SessionID   string `json:"session_id"`
	State       string `json:"state"`
	PollCount   int32  `json:"poll_count"`
	DurationSec int32  `json:"duration_sec"`
	DistanceM   int32  `json:"distance_m"`
	Provider    string `json:"provider"`
	Rerouted    bool   `json:"rerouted"`
	PolledAt    string `json:"polled_at"`
}
