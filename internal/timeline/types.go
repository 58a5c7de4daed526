package timeline

import "time"

// Event source values as reported by the upstream device source.
const (
	SourceDevice     = "device"
	SourceCommand    = "command"
	SourceAutomation = "automation"
)

// RawEvent is a state-change record as received from the device source.
// The timestamp is kept as wire text until Normalize parses it, so a
// single malformed record cannot fail the whole batch.
type RawEvent struct {
	// EventID is the upstream identifier for the record. Events with the
	// same ID are duplicates; an empty ID is treated as unique.
	EventID string `json:"event_id"`

	// DeviceID is the unique identifier of the device.
	DeviceID string `json:"device_id"`

	// Capability is the capability the change belongs to (e.g. on_off).
	Capability string `json:"capability"`

	// Attribute is the changed attribute (e.g. switch, level).
	Attribute string `json:"attribute"`

	// Value is the new attribute value as text (e.g. "on", "off", "75").
	Value string `json:"value"`

	// Timestamp is the change time as RFC3339 wire text.
	Timestamp string `json:"timestamp"`

	// Source identifies how the change was recorded (device, command, automation).
	Source string `json:"source"`
}

// StateEvent is a normalised, immutable state-change event.
type StateEvent struct {
	EventID    string    `json:"event_id"`
	DeviceID   string    `json:"device_id"`
	Capability string    `json:"capability"`
	Attribute  string    `json:"attribute"`
	Value      string    `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
}
