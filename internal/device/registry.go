package device

import (
	"sort"
	"strings"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds the in-memory device catalogue with secondary indexes
// by capability and room.
//
// All public methods are thread-safe. Returned records are copies;
// callers can safely modify them.
type Registry struct {
	mu           sync.RWMutex
	byID         map[string]*DeviceRecord
	byCapability map[Capability]map[string]struct{}
	byRoom       map[string]map[string]struct{}
	logger       Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:         make(map[string]*DeviceRecord),
		byCapability: make(map[Capability]map[string]struct{}),
		byRoom:       make(map[string]map[string]struct{}),
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register upserts a device record. Registering the same record twice is
// idempotent; registering a changed record replaces it and reindexes.
func (r *Registry) Register(rec DeviceRecord) error {
	if rec.ID == "" || rec.Name == "" {
		return ErrInvalidDevice
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[rec.ID]; ok {
		r.unindexLocked(existing)
	}

	stored := rec.Copy()
	r.byID[rec.ID] = &stored
	r.indexLocked(&stored)

	r.logger.Debug("device registered", "id", rec.ID, "name", rec.Name)
	return nil
}

// ReplaceAll swaps the whole catalogue for the given records, as on a
// full re-sync from the device source. Records failing validation are
// skipped; the catalogue is never partially deleted mid-session.
func (r *Registry) ReplaceAll(records []DeviceRecord) int {
	byID := make(map[string]*DeviceRecord, len(records))
	byCap := make(map[Capability]map[string]struct{})
	byRoom := make(map[string]map[string]struct{})

	count := 0
	for _, rec := range records {
		if rec.ID == "" || rec.Name == "" {
			continue
		}
		stored := rec.Copy()
		byID[rec.ID] = &stored
		count++
	}

	r.mu.Lock()
	r.byID = byID
	r.byCapability = byCap
	r.byRoom = byRoom
	for _, rec := range byID {
		r.indexLocked(rec)
	}
	r.mu.Unlock()

	r.logger.Info("device catalogue replaced", "count", count)
	return count
}

// indexLocked adds a record to the secondary indexes. Caller holds mu.
func (r *Registry) indexLocked(rec *DeviceRecord) {
	for _, cap := range rec.Capabilities {
		if r.byCapability[cap] == nil {
			r.byCapability[cap] = make(map[string]struct{})
		}
		r.byCapability[cap][rec.ID] = struct{}{}
	}
	if rec.Room != "" {
		key := strings.ToLower(rec.Room)
		if r.byRoom[key] == nil {
			r.byRoom[key] = make(map[string]struct{})
		}
		r.byRoom[key][rec.ID] = struct{}{}
	}
}

// unindexLocked removes a record from the secondary indexes. Caller holds mu.
func (r *Registry) unindexLocked(rec *DeviceRecord) {
	for _, cap := range rec.Capabilities {
		delete(r.byCapability[cap], rec.ID)
	}
	if rec.Room != "" {
		delete(r.byRoom[strings.ToLower(rec.Room)], rec.ID)
	}
}

// Get retrieves a device by ID in O(1).
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) Get(id string) (DeviceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return DeviceRecord{}, ErrDeviceNotFound
	}
	return rec.Copy(), nil
}

// List returns all devices sorted by name for stable output.
func (r *Registry) List() []DeviceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCapability returns all devices with the given capability.
func (r *Registry) ByCapability(cap Capability) []DeviceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(r.byCapability[cap])
}

// ByRoom returns all devices in the given room (case-insensitive).
func (r *Registry) ByRoom(room string) []DeviceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(r.byRoom[strings.ToLower(room)])
}

// collectLocked copies the records behind an index set. Caller holds mu.
func (r *Registry) collectLocked(ids map[string]struct{}) []DeviceRecord {
	var out []DeviceRecord
	for id := range ids {
		if rec, ok := r.byID[id]; ok {
			out = append(out, rec.Copy())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
