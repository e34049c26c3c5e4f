package websocket

import "time"

// Event types pushed to dashboards.
const (
	EventConnection           = "connection"
	EventDatasetLoaded        = "dataset:loaded"
	EventSelectionChanged     = "selection:changed"
	EventConfigurationSaved   = "configuration:saved"
	EventConfigurationApplied = "configuration:applied"
	EventConfigurationDeleted = "configuration:deleted"
	EventCredentialChanged    = "credential:changed"
)

// Event is the envelope of every message sent to clients.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

func newEvent(eventType string, data interface{}, traceID string) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	}
}
