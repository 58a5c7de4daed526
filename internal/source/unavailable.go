package source

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/diagnosis"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// Unavailable is a device source with no backend. Every call fails with a
// not-found source error, so diagnostic runs degrade to registry-only
// reports instead of aborting. Used when no local fixture directory or
// cloud connector is configured.
type Unavailable struct{}

// GetStatus implements diagnosis.DeviceSource.
func (Unavailable) GetStatus(context.Context, string) (diagnosis.DeviceStatus, error) {
	return diagnosis.DeviceStatus{}, diagnosis.NewNotFound(diagnosis.SourceStatus)
}

// GetEvents implements diagnosis.DeviceSource.
func (Unavailable) GetEvents(context.Context, string, time.Duration) ([]timeline.RawEvent, error) {
	return nil, diagnosis.NewNotFound(diagnosis.SourceEvents)
}

// ListDevices implements diagnosis.DeviceSource.
func (Unavailable) ListDevices(context.Context) ([]device.DeviceRecord, error) {
	return nil, diagnosis.NewNotFound(diagnosis.SourceSystem)
}
