package diagnosis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// fakeDeviceSource is a test implementation of DeviceSource. Error queues
// are consumed one entry per call; a nil entry (or an exhausted queue)
// means success.
type fakeDeviceSource struct {
	mu sync.Mutex

	statusCalls int
	eventsCalls int
	listCalls   int

	statusErrs []error
	eventsErrs []error
	listErrs   []error

	status  DeviceStatus
	events  []timeline.RawEvent
	devices []device.DeviceRecord

	// block makes every call wait for context cancellation.
	block bool
}

func popErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func (f *fakeDeviceSource) GetStatus(ctx context.Context, _ string) (DeviceStatus, error) {
	f.mu.Lock()
	f.statusCalls++
	err := popErr(&f.statusErrs)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return DeviceStatus{}, ctx.Err()
	}
	if err != nil {
		return DeviceStatus{}, err
	}
	return f.status, nil
}

func (f *fakeDeviceSource) GetEvents(ctx context.Context, _ string, _ time.Duration) ([]timeline.RawEvent, error) {
	f.mu.Lock()
	f.eventsCalls++
	err := popErr(&f.eventsErrs)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return f.events, nil
}

func (f *fakeDeviceSource) ListDevices(ctx context.Context) ([]device.DeviceRecord, error) {
	f.mu.Lock()
	f.listCalls++
	err := popErr(&f.listErrs)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return f.devices, nil
}

func (f *fakeDeviceSource) calls() (status, events, list int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.eventsCalls, f.listCalls
}

// fakeSimilaritySource is a test implementation of SimilaritySource.
type fakeSimilaritySource struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	similar []SimilarDevice
}

func (f *fakeSimilaritySource) FindSimilar(_ context.Context, _ string, _ int) ([]SimilarDevice, error) {
	f.mu.Lock()
	f.calls++
	err := popErr(&f.errs)
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return f.similar, nil
}

// testDiagnosisConfig returns a config with millisecond retry delays so
// retry tests stay fast.
func testDiagnosisConfig() config.DiagnosisConfig {
	return config.DiagnosisConfig{
		GatherTimeout:     5,
		CallTimeout:       2,
		RetryMaxAttempts:  3,
		RetryInitialDelay: 1,
		RetryMaxDelay:     5,
		EventWindow:       24,
		SimilarK:          5,
	}
}

func healthyFakes() (*fakeDeviceSource, *fakeSimilaritySource) {
	devices := &fakeDeviceSource{
		status: DeviceStatus{DeviceID: "dev-1", Online: true},
		events: []timeline.RawEvent{
			{EventID: "e1", DeviceID: "dev-1", Value: "on", Timestamp: "2026-03-01T10:00:00Z"},
		},
		devices: []device.DeviceRecord{
			{ID: "dev-1", Name: "Kitchen Light", Online: true},
			{ID: "dev-2", Name: "Bedroom Light", Online: false},
		},
	}
	similar := &fakeSimilaritySource{
		similar: []SimilarDevice{{DeviceID: "dev-2", Name: "Bedroom Light", Distance: 0.2}},
	}
	return devices, similar
}

func TestGatherAllSlotsSucceed(t *testing.T) {
	devices, similar := healthyFakes()
	g := NewGatherer(devices, similar, testDiagnosisConfig())

	dc := g.Gather(context.Background(), "dev-1")

	if dc.Health == nil || !dc.Health.Online {
		t.Errorf("Health = %v, want online status", dc.Health)
	}
	if !dc.HasEvents || len(dc.Events) != 1 {
		t.Errorf("Events = %v (has=%v), want 1 event", dc.Events, dc.HasEvents)
	}
	if !dc.HasSimilar || len(dc.Similar) != 1 {
		t.Errorf("Similar = %v (has=%v), want 1 device", dc.Similar, dc.HasSimilar)
	}
	if dc.System == nil || dc.System.DevicesTotal != 2 || dc.System.DevicesOnline != 1 {
		t.Errorf("System = %+v, want 1 of 2 online", dc.System)
	}
	if len(dc.Unavailable) != 0 {
		t.Errorf("Unavailable = %v, want none", dc.Unavailable)
	}
}

func TestGatherPartialFailure(t *testing.T) {
	devices, similar := healthyFakes()
	devices.statusErrs = []error{NewUnauthorized(SourceStatus)}
	similar.errs = []error{NewNotFound(SourceSimilar)}

	g := NewGatherer(devices, similar, testDiagnosisConfig())
	dc := g.Gather(context.Background(), "dev-1")

	// The two surviving slots are intact.
	if !dc.HasEvents {
		t.Error("events slot lost to a sibling failure")
	}
	if dc.System == nil {
		t.Error("system slot lost to a sibling failure")
	}

	if len(dc.Unavailable) != 2 {
		t.Fatalf("Unavailable = %v, want 2 entries", dc.Unavailable)
	}
	kinds := make(map[string]ErrorKind)
	for _, f := range dc.Unavailable {
		kinds[f.Source] = f.Kind
	}
	if kinds[SourceStatus] != ErrorUnauthorized {
		t.Errorf("status failure kind = %q, want unauthorized", kinds[SourceStatus])
	}
	if kinds[SourceSimilar] != ErrorNotFound {
		t.Errorf("similar failure kind = %q, want not_found", kinds[SourceSimilar])
	}
}

func TestGatherDoesNotRetryNonRetryable(t *testing.T) {
	devices, similar := healthyFakes()
	devices.statusErrs = []error{NewUnauthorized(SourceStatus)}

	g := NewGatherer(devices, similar, testDiagnosisConfig())
	g.Gather(context.Background(), "dev-1")

	status, _, _ := devices.calls()
	if status != 1 {
		t.Errorf("status calls = %d, want 1 (no retry for unauthorized)", status)
	}
}

func TestGatherRetriesTransientFailures(t *testing.T) {
	devices, similar := healthyFakes()
	devices.statusErrs = []error{
		NewTransientNetwork(SourceStatus, nil),
		NewRateLimited(SourceStatus, 0),
		nil, // third attempt succeeds
	}

	g := NewGatherer(devices, similar, testDiagnosisConfig())
	dc := g.Gather(context.Background(), "dev-1")

	status, _, _ := devices.calls()
	if status != 3 {
		t.Errorf("status calls = %d, want 3", status)
	}
	if dc.Health == nil {
		t.Error("Health absent after a successful retry")
	}
	for _, f := range dc.Unavailable {
		if f.Source == SourceStatus {
			t.Errorf("status listed unavailable after recovery: %+v", f)
		}
	}
}

func TestGatherRetryBudgetIsBounded(t *testing.T) {
	devices, similar := healthyFakes()
	devices.statusErrs = []error{
		NewTimeout(SourceStatus),
		NewTimeout(SourceStatus),
		NewTimeout(SourceStatus),
		NewTimeout(SourceStatus),
	}
	cfg := testDiagnosisConfig()
	cfg.RetryMaxAttempts = 2

	g := NewGatherer(devices, similar, cfg)
	dc := g.Gather(context.Background(), "dev-1")

	status, _, _ := devices.calls()
	if status != 2 {
		t.Errorf("status calls = %d, want exactly the attempt budget of 2", status)
	}

	var failure *SourceFailure
	for i := range dc.Unavailable {
		if dc.Unavailable[i].Source == SourceStatus {
			failure = &dc.Unavailable[i]
		}
	}
	if failure == nil {
		t.Fatal("status not listed unavailable after exhausted retries")
	}
	if failure.Kind != ErrorTimeout {
		t.Errorf("failure kind = %q, want timeout", failure.Kind)
	}
}

func TestGatherNilSimilaritySource(t *testing.T) {
	devices, _ := healthyFakes()

	g := NewGatherer(devices, nil, testDiagnosisConfig())
	dc := g.Gather(context.Background(), "dev-1")

	if dc.HasSimilar {
		t.Error("HasSimilar = true with no similarity source")
	}
	found := false
	for _, f := range dc.Unavailable {
		if f.Source == SourceSimilar && f.Kind == ErrorNotFound {
			found = true
		}
	}
	if !found {
		t.Errorf("Unavailable = %v, want a similar/not_found entry", dc.Unavailable)
	}
}

func TestGatherAllSourcesFail(t *testing.T) {
	devices, similar := healthyFakes()
	devices.statusErrs = []error{NewUnauthorized(SourceStatus)}
	devices.eventsErrs = []error{NewNotFound(SourceEvents)}
	devices.listErrs = []error{NewUnauthorized(SourceSystem)}
	similar.errs = []error{NewUnauthorized(SourceSimilar)}

	g := NewGatherer(devices, similar, testDiagnosisConfig())
	dc := g.Gather(context.Background(), "dev-1")

	if !dc.AllUnavailable() {
		t.Error("AllUnavailable() = false with every slot failed")
	}
	if len(dc.Unavailable) != 4 {
		t.Errorf("Unavailable = %d entries, want 4", len(dc.Unavailable))
	}
}

func TestGatherHonoursWallClockCeiling(t *testing.T) {
	devices, _ := healthyFakes()
	devices.block = true
	cfg := testDiagnosisConfig()
	cfg.GatherTimeout = 1
	cfg.CallTimeout = 1
	cfg.RetryMaxAttempts = 1

	g := NewGatherer(devices, nil, cfg)

	start := time.Now()
	dc := g.Gather(context.Background(), "dev-1")
	elapsed := time.Since(start)

	if elapsed > 3*time.Second {
		t.Errorf("Gather took %v, want well under the ceiling plus slack", elapsed)
	}
	if !dc.AllUnavailable() {
		t.Error("blocked sources should all settle as unavailable")
	}
	for _, f := range dc.Unavailable {
		if f.Source == SourceSimilar {
			continue // nil source, fails as not_found
		}
		if f.Kind != ErrorTimeout && f.Kind != ErrorTransientNetwork {
			t.Errorf("%s failure kind = %q, want a timeout-ish kind", f.Source, f.Kind)
		}
	}
}
