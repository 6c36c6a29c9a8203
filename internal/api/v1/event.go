package v1

import (
	"fmt"
	"time"
)

// Event is one value-change notification for a monitored source.
type Event struct {
	// SourceID identifies the monitored point the value belongs to.
	// This field is REQUIRED.
	SourceID string `json:"source_id"`

	// Value is the raw observed value: a number, a boolean, or a string such
	// as "on" or "standby". JSON numbers arrive as float64.
	// A null value is accepted on the wire and dropped by the engine.
	Value any `json:"value"`

	// Timestamp is when the value was observed (client-side clock).
	// Optional; the engine uses its own clock when omitted.
	Timestamp time.Time `json:"timestamp"`

	// Ack marks the value as confirmed by the device. Unacknowledged values
	// are commands that have not been applied yet and are ignored.
	// Defaults to true.
	Ack *bool `json:"ack,omitempty"`
}

// Validate ensures the event has all required attributes and applies defaults.
func (e *Event) Validate() error {
	if e.SourceID == "" {
		return fmt.Errorf("source_id is required")
	}

	if e.Ack == nil {
		ack := true
		e.Ack = &ack
	}

	return nil
}

// Acknowledged reports whether the event should be routed.
func (e *Event) Acknowledged() bool {
	return e.Ack == nil || *e.Ack
}
