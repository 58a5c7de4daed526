package diagnosis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/pattern"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// fakeIntentSource is a test implementation of IntentSource.
type fakeIntentSource struct {
	mu     sync.Mutex
	calls  int
	intent Intent
	err    error
}

func (f *fakeIntentSource) Classify(_ context.Context, _ string) (Intent, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return Intent{}, f.err
	}
	return f.intent, nil
}

func newTestRegistry(t *testing.T) *device.Registry {
	t.Helper()
	r := device.NewRegistry()
	records := []device.DeviceRecord{
		{ID: "dev-1", Name: "Kitchen Light", Room: "Kitchen", Online: true},
		{ID: "dev-3", Name: "Room 1 Thermostat", Room: "Room 1", Online: true},
		{ID: "dev-4", Name: "Room 2 Thermostat", Room: "Room 2", Online: true},
	}
	for _, rec := range records {
		if err := r.Register(rec); err != nil {
			t.Fatalf("Register(%s): %v", rec.ID, err)
		}
	}
	return r
}

func newTestWorkflow(t *testing.T, devices DeviceSource, similar SimilaritySource, intents IntentSource) *Workflow {
	t.Helper()
	g := NewGatherer(devices, similar, testDiagnosisConfig())
	w, err := NewWorkflow(newTestRegistry(t), g, intents, pattern.DefaultConfig())
	if err != nil {
		t.Fatalf("NewWorkflow: %v", err)
	}
	return w
}

func TestNewWorkflowContract(t *testing.T) {
	devices, similar := healthyFakes()
	g := NewGatherer(devices, similar, testDiagnosisConfig())

	if _, err := NewWorkflow(nil, g, nil, pattern.DefaultConfig()); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("nil registry: error = %v, want ErrNilRegistry", err)
	}
	if _, err := NewWorkflow(device.NewRegistry(), nil, nil, pattern.DefaultConfig()); !errors.Is(err, ErrNilGatherer) {
		t.Errorf("nil gatherer: error = %v, want ErrNilGatherer", err)
	}
}

func TestExecuteEmptyQuery(t *testing.T) {
	devices, similar := healthyFakes()
	w := newTestWorkflow(t, devices, similar, nil)

	if _, err := w.Execute(context.Background(), Query{}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestExecuteProducesDiagnosisReport(t *testing.T) {
	devices, similar := healthyFakes()
	// Off then back on 3 seconds later: an automation-trigger pattern.
	devices.events = []timeline.RawEvent{
		{EventID: "e1", DeviceID: "dev-1", Value: "on", Timestamp: "2026-03-01T10:00:00Z"},
		{EventID: "e2", DeviceID: "dev-1", Value: "off", Timestamp: "2026-03-01T10:05:00Z"},
		{EventID: "e3", DeviceID: "dev-1", Value: "on", Timestamp: "2026-03-01T10:05:03Z"},
	}
	w := newTestWorkflow(t, devices, similar, nil)

	report, err := w.Execute(context.Background(), Query{DeviceNames: []string{"Kitchen Light"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if report.Kind != ReportDiagnosis {
		t.Errorf("Kind = %q, want diagnosis", report.Kind)
	}
	if report.State != StateComplete {
		t.Errorf("State = %q, want complete", report.State)
	}
	if report.ReportID == "" {
		t.Error("ReportID is empty")
	}
	if report.Device == nil || report.Device.ID != "dev-1" {
		t.Errorf("Device = %v, want dev-1", report.Device)
	}
	if report.Context == nil {
		t.Fatal("Context is nil on a diagnosis report")
	}
	if len(report.Hypotheses) == 0 {
		t.Fatal("no hypotheses for a clear trigger pattern")
	}
	top := report.Hypotheses[0]
	if !strings.Contains(top.Description, "automation") {
		t.Errorf("top hypothesis %q does not implicate an automation", top.Description)
	}
	if len(top.Patterns) == 0 || top.Patterns[0].Kind != pattern.KindAutomationTrigger {
		t.Errorf("top hypothesis patterns = %v, want an automation-trigger finding", top.Patterns)
	}
	if len(report.Recommendations) == 0 {
		t.Error("no recommendations")
	}
	if report.Summary == "" {
		t.Error("empty summary")
	}
}

func TestExecuteNotFoundReport(t *testing.T) {
	devices, similar := healthyFakes()
	w := newTestWorkflow(t, devices, similar, nil)

	report, err := w.Execute(context.Background(), Query{DeviceNames: []string{"kitchn light"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if report.Kind != ReportNotFound {
		t.Fatalf("Kind = %q, want not_found", report.Kind)
	}
	if report.State != StateComplete {
		t.Errorf("State = %q, want complete", report.State)
	}
	if report.Resolution == nil || report.Resolution.Kind != device.ResolutionNotFound {
		t.Fatalf("Resolution = %v, want a not_found resolution", report.Resolution)
	}
	if len(report.Resolution.Suggestions) == 0 {
		t.Error("no suggestions for a near-miss name")
	}
	if !strings.Contains(report.Summary, "Did you mean") {
		t.Errorf("Summary = %q, want suggestions surfaced", report.Summary)
	}
	if report.Context != nil {
		t.Error("not-found report reached the gathering stage")
	}
}

func TestExecuteAmbiguousReport(t *testing.T) {
	devices, similar := healthyFakes()
	w := newTestWorkflow(t, devices, similar, nil)

	report, err := w.Execute(context.Background(), Query{DeviceNames: []string{"thermostat"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if report.Kind != ReportAmbiguous {
		t.Fatalf("Kind = %q, want ambiguous", report.Kind)
	}
	if report.Resolution == nil || len(report.Resolution.Candidates) != 2 {
		t.Fatalf("Resolution = %v, want 2 candidates", report.Resolution)
	}
	if !strings.Contains(report.Summary, "2 devices match") {
		t.Errorf("Summary = %q, want candidate count surfaced", report.Summary)
	}
}

func TestExecuteDegradedReport(t *testing.T) {
	// Every collaborator fails: the run must still produce a report, with
	// an explicitly low-confidence registry-only hypothesis.
	devices, similar := healthyFakes()
	devices.statusErrs = []error{NewUnauthorized(SourceStatus)}
	devices.eventsErrs = []error{NewUnauthorized(SourceEvents)}
	devices.listErrs = []error{NewUnauthorized(SourceSystem)}
	similar.errs = []error{NewUnauthorized(SourceSimilar)}
	w := newTestWorkflow(t, devices, similar, nil)

	report, err := w.Execute(context.Background(), Query{DeviceNames: []string{"Kitchen Light"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if report.Kind != ReportDiagnosis {
		t.Errorf("Kind = %q, want diagnosis", report.Kind)
	}
	if len(report.UnavailableSources) != 4 {
		t.Errorf("UnavailableSources = %v, want all 4", report.UnavailableSources)
	}
	if len(report.Hypotheses) != 1 {
		t.Fatalf("Hypotheses = %v, want the single degraded fallback", report.Hypotheses)
	}
	if got := report.Hypotheses[0].Confidence; got != degradedConfidence {
		t.Errorf("Confidence = %v, want %v", got, degradedConfidence)
	}
	if !strings.Contains(report.Summary, "unavailable") {
		t.Errorf("Summary = %q, want unavailable sources flagged", report.Summary)
	}
}

func TestExecutePartialFailureStillAnalyzes(t *testing.T) {
	devices, similar := healthyFakes()
	devices.events = []timeline.RawEvent{
		{EventID: "e1", DeviceID: "dev-1", Value: "off", Timestamp: "2026-03-01T10:00:00Z"},
		{EventID: "e2", DeviceID: "dev-1", Value: "on", Timestamp: "2026-03-01T10:00:02Z"},
	}
	devices.statusErrs = []error{NewUnauthorized(SourceStatus)}
	similar.errs = []error{NewNotFound(SourceSimilar)}
	w := newTestWorkflow(t, devices, similar, nil)

	report, err := w.Execute(context.Background(), Query{DeviceNames: []string{"Kitchen Light"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(report.UnavailableSources) != 2 {
		t.Errorf("UnavailableSources = %v, want 2", report.UnavailableSources)
	}
	// The surviving events slot still feeds the detectors.
	found := false
	for _, h := range report.Hypotheses {
		for _, p := range h.Patterns {
			if p.Kind == pattern.KindAutomationTrigger {
				found = true
			}
		}
	}
	if !found {
		t.Error("no automation-trigger hypothesis despite usable events")
	}
}

func TestExecuteRecordsDataQualityNotes(t *testing.T) {
	devices, similar := healthyFakes()
	devices.events = []timeline.RawEvent{
		{EventID: "e1", DeviceID: "dev-1", Value: "on", Timestamp: "2026-03-01T10:00:00Z"},
		{EventID: "e2", DeviceID: "dev-1", Value: "off", Timestamp: "not-a-timestamp"},
	}
	w := newTestWorkflow(t, devices, similar, nil)

	report, err := w.Execute(context.Background(), Query{DeviceNames: []string{"Kitchen Light"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	found := false
	for _, n := range report.Notes {
		if strings.Contains(n, "e2") && strings.Contains(n, "unparsable") {
			found = true
		}
	}
	if !found {
		t.Errorf("Notes = %v, want the dropped event recorded", report.Notes)
	}
}

func TestExecuteUsesIntentClassifier(t *testing.T) {
	devices, similar := healthyFakes()
	intents := &fakeIntentSource{intent: Intent{
		Intent:      "diagnose",
		DeviceNames: []string{"Kitchen Light"},
		Confidence:  0.9,
	}}
	w := newTestWorkflow(t, devices, similar, intents)

	report, err := w.Execute(context.Background(), Query{Text: "why does the kitchen light keep turning on"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Device == nil || report.Device.ID != "dev-1" {
		t.Errorf("Device = %v, want dev-1 via the classifier", report.Device)
	}
	if intents.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", intents.calls)
	}
}

func TestExecuteIntentClassifierFailureFallsBack(t *testing.T) {
	devices, similar := healthyFakes()
	intents := &fakeIntentSource{err: NewTimeout(SourceIntent)}
	w := newTestWorkflow(t, devices, similar, intents)

	// The raw text happens to be a resolvable device name, so the run
	// proceeds despite the classifier being down.
	report, err := w.Execute(context.Background(), Query{Text: "Kitchen Light"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Device == nil || report.Device.ID != "dev-1" {
		t.Errorf("Device = %v, want dev-1 via literal fallback", report.Device)
	}
	found := false
	for _, n := range report.Notes {
		if strings.Contains(n, "intent classifier unavailable") {
			found = true
		}
	}
	if !found {
		t.Errorf("Notes = %v, want the fallback recorded", report.Notes)
	}
}

func TestExecuteWithoutIntentSourceTreatsTextAsName(t *testing.T) {
	devices, similar := healthyFakes()
	w := newTestWorkflow(t, devices, similar, nil)

	report, err := w.Execute(context.Background(), Query{Text: "Kitchen Light"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Device == nil || report.Device.ID != "dev-1" {
		t.Errorf("Device = %v, want dev-1", report.Device)
	}
}
