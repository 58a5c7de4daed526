package diagnosis

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// DeviceSource is the upstream device/event collaborator (typically a
// cloud API client, out of scope here). All calls may fail with a
// SourceError of any kind.
type DeviceSource interface {
	// GetStatus returns the current status of one device.
	GetStatus(ctx context.Context, deviceID string) (DeviceStatus, error)

	// GetEvents returns state-change events for one device over the
	// trailing window, in whatever order the upstream returns them.
	GetEvents(ctx context.Context, deviceID string, window time.Duration) ([]timeline.RawEvent, error)

	// ListDevices returns the full device catalogue.
	ListDevices(ctx context.Context) ([]device.DeviceRecord, error)
}

// SimilaritySource finds nearest-neighbour devices by embedding distance.
// Embedding mechanics are opaque to this package.
type SimilaritySource interface {
	FindSimilar(ctx context.Context, deviceID string, k int) ([]SimilarDevice, error)
}

// IntentSource classifies free-text queries into an intent plus extracted
// device names.
type IntentSource interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// DeviceStatus is a device's live status as reported by the device source.
type DeviceStatus struct {
	DeviceID   string            `json:"device_id"`
	Online     bool              `json:"online"`
	Attributes map[string]string `json:"attributes,omitempty"`
	LastSeen   time.Time         `json:"last_seen"`
}

// SimilarDevice is one nearest-neighbour result.
type SimilarDevice struct {
	DeviceID string  `json:"device_id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// Intent is the intent classifier's interpretation of a free-text query.
type Intent struct {
	Intent      string   `json:"intent"`
	DeviceNames []string `json:"device_names"`
	Confidence  float64  `json:"confidence"`
}

// SystemStatus is a coarse view of overall system health, derived from
// the device catalogue.
type SystemStatus struct {
	DevicesTotal  int    `json:"devices_total"`
	DevicesOnline int    `json:"devices_online"`
	Summary       string `json:"summary"`
}
