package failedevent

import (
	"encoding/json"
	"time"
)

// FailedEvent is a dead-lettered pipeline event: a message that failed
// permanently and was pulled off the queue for inspection or manual retry.
type FailedEvent struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Retries   int             `json:"retries"`
	CreatedAt time.Time       `json:"created_at"`
}
