package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/diagnosis"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// Fixture file names under the local source directory.
const (
	devicesFile = "devices.json"
	eventsFile  = "events.json"
)

// Local serves device and event data from JSON files in a directory.
// It implements diagnosis.DeviceSource.
type Local struct {
	mu      sync.RWMutex
	dir     string
	devices map[string]device.DeviceRecord
	events  map[string][]timeline.RawEvent
}

// NewLocal loads the fixture files from dir. devices.json is required;
// events.json is optional (devices simply have no history).
func NewLocal(dir string) (*Local, error) {
	l := &Local{dir: dir}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the fixture files, replacing the in-memory data.
func (l *Local) Reload() error {
	var devices []device.DeviceRecord
	if err := readJSON(filepath.Join(l.dir, devicesFile), &devices); err != nil {
		return fmt.Errorf("loading %s: %w", devicesFile, err)
	}

	var events []timeline.RawEvent
	eventsPath := filepath.Join(l.dir, eventsFile)
	if _, err := os.Stat(eventsPath); err == nil {
		if err := readJSON(eventsPath, &events); err != nil {
			return fmt.Errorf("loading %s: %w", eventsFile, err)
		}
	}

	byID := make(map[string]device.DeviceRecord, len(devices))
	for _, d := range devices {
		byID[d.ID] = d
	}
	byDevice := make(map[string][]timeline.RawEvent)
	for _, ev := range events {
		byDevice[ev.DeviceID] = append(byDevice[ev.DeviceID], ev)
	}

	l.mu.Lock()
	l.devices = byID
	l.events = byDevice
	l.mu.Unlock()

	return nil
}

// GetStatus returns the status of one device, derived from the catalogue
// record and its most recent event.
func (l *Local) GetStatus(_ context.Context, deviceID string) (diagnosis.DeviceStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.devices[deviceID]
	if !ok {
		return diagnosis.DeviceStatus{}, diagnosis.NewNotFound(diagnosis.SourceStatus)
	}

	status := diagnosis.DeviceStatus{
		DeviceID: rec.ID,
		Online:   rec.Online,
		LastSeen: rec.LastSeen,
	}
	if latest, ok := l.latestEvent(deviceID); ok {
		status.Attributes = map[string]string{latest.Attribute: latest.Value}
		if ts, err := time.Parse(time.RFC3339, latest.Timestamp); err == nil && ts.After(status.LastSeen) {
			status.LastSeen = ts.UTC()
		}
	}
	return status, nil
}

// GetEvents returns the device's events inside the trailing window.
// Events with unparsable timestamps are passed through; the timeline
// normaliser owns that judgement.
func (l *Local) GetEvents(_ context.Context, deviceID string, window time.Duration) ([]timeline.RawEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.devices[deviceID]; !ok {
		return nil, diagnosis.NewNotFound(diagnosis.SourceEvents)
	}

	cutoff := time.Now().Add(-window)
	var out []timeline.RawEvent
	for _, ev := range l.events[deviceID] {
		ts, err := time.Parse(time.RFC3339, ev.Timestamp)
		if err != nil || !ts.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ListDevices returns the full catalogue.
func (l *Local) ListDevices(_ context.Context) ([]device.DeviceRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]device.DeviceRecord, 0, len(l.devices))
	for _, rec := range l.devices {
		out = append(out, rec.Copy())
	}
	return out, nil
}

// latestEvent returns the device's most recent parseable event.
// Callers must hold l.mu.
func (l *Local) latestEvent(deviceID string) (timeline.RawEvent, bool) {
	var (
		best   timeline.RawEvent
		bestTS time.Time
		found  bool
	)
	for _, ev := range l.events[deviceID] {
		ts, err := time.Parse(time.RFC3339, ev.Timestamp)
		if err != nil {
			continue
		}
		if !found || ts.After(bestTS) {
			best, bestTS, found = ev, ts, true
		}
	}
	return best, found
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
