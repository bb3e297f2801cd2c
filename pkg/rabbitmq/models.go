package rabbitmq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventPayload struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PollRecordedEvent is emitted after a poll record commits; downstream
// consumers (notifications, analytics) subscribe via the topic exchange.
type PollRecordedEvent struct {
	RouteID     uuid.UUID `json:"route_id"`
	SessionID   uuid.UUID `json:"session_id"`
	UserID      uuid.UUID `json:"user_id"`
	Provider    string    `json:"provider"`
	PolledAt    time.Time `json:"polled_at"`
	DurationSec int32     `json:"duration_sec"`
	DistanceM   int32     `json:"distance_m"`
	Rerouted    bool      `json:"rerouted"`
}

// TripleTestCompletedEvent is emitted when every shot of a triple test
// has resolved.
type TripleTestCompletedEvent struct {
	SessionID      uuid.UUID `json:"session_id"`
	Provider       string    `json:"provider"`
	IdealShotIndex *int32    `json:"ideal_shot_index"`
	SuccessCount   int       `json:"success_count"`
}
