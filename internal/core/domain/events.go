package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventDatasetUpdated EventType = "DATASET_UPDATED"
	EventDatasetFailed  EventType = "DATASET_FAILED"
	EventPong           EventType = "PONG"
	EventError          EventType = "ERROR"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type    EventType   `json:"type"`
	Dataset string      `json:"dataset,omitempty"` // Used for routing to dataset "rooms"
	Payload interface{} `json:"payload,omitempty"`
}
