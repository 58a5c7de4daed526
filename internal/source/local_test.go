package source

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/diagnosis"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

func writeFixture(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshalling %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, dir, devicesFile, []device.DeviceRecord{
		{ID: "dev-1", Name: "Kitchen Light", Room: "Kitchen", Online: true,
			LastSeen: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		{ID: "dev-2", Name: "Bedroom Sensor", Room: "Bedroom", Online: false},
	})
	writeFixture(t, dir, eventsFile, []timeline.RawEvent{
		{EventID: "e1", DeviceID: "dev-1", Value: "on",
			Timestamp: time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC3339)},
		{EventID: "e2", DeviceID: "dev-1", Value: "off",
			Timestamp: time.Now().UTC().Add(-30 * time.Minute).Format(time.RFC3339)},
		{EventID: "old", DeviceID: "dev-1", Value: "on",
			Timestamp: time.Now().UTC().Add(-80 * time.Hour).Format(time.RFC3339)},
	})

	l, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestLocalListDevices(t *testing.T) {
	l := newTestLocal(t)

	devices, err := l.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("got %d devices, want 2", len(devices))
	}
}

func TestLocalGetStatus(t *testing.T) {
	l := newTestLocal(t)

	status, err := l.GetStatus(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.Online {
		t.Error("Online = false, want the catalogue flag")
	}
	// The latest event is newer than the catalogue's last-seen.
	if time.Since(status.LastSeen) > time.Hour {
		t.Errorf("LastSeen = %v, want refreshed from the latest event", status.LastSeen)
	}
	if status.Attributes == nil {
		t.Error("no attributes derived from the latest event")
	}
}

func TestLocalGetStatusUnknownDevice(t *testing.T) {
	l := newTestLocal(t)

	_, err := l.GetStatus(context.Background(), "dev-9")
	var se *diagnosis.SourceError
	if !errors.As(err, &se) || se.Kind != diagnosis.ErrorNotFound {
		t.Errorf("error = %v, want a not_found source error", err)
	}
}

func TestLocalGetEventsWindow(t *testing.T) {
	l := newTestLocal(t)

	events, err := l.GetEvents(context.Background(), "dev-1", 24*time.Hour)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 inside the window", len(events))
	}
	for _, ev := range events {
		if ev.EventID == "old" {
			t.Error("event outside the window was returned")
		}
	}
}

func TestLocalGetEventsNoHistory(t *testing.T) {
	l := newTestLocal(t)

	events, err := l.GetEvents(context.Background(), "dev-2", 24*time.Hour)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %v, want no events", events)
	}
}

func TestLocalMissingDevicesFile(t *testing.T) {
	if _, err := NewLocal(t.TempDir()); err == nil {
		t.Error("NewLocal succeeded without devices.json")
	}
}

func TestLocalEventsFileOptional(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, devicesFile, []device.DeviceRecord{
		{ID: "dev-1", Name: "Kitchen Light"},
	})

	l, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	events, err := l.GetEvents(context.Background(), "dev-1", time.Hour)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %v, want none", events)
	}
}

func TestLocalReload(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, devicesFile, []device.DeviceRecord{
		{ID: "dev-1", Name: "Kitchen Light"},
	})

	l, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	writeFixture(t, dir, devicesFile, []device.DeviceRecord{
		{ID: "dev-1", Name: "Kitchen Light"},
		{ID: "dev-2", Name: "Hallway Light"},
	})
	if err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	devices, err := l.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("got %d devices after reload, want 2", len(devices))
	}
}
