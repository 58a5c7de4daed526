package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/diagnosis/metrics"
	"github.com/nerrad567/gray-logic-diag/internal/pattern"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// Contract violations — the only error class permitted to abort a run.
var (
	// ErrNilRegistry is returned by NewWorkflow when no registry is given.
	ErrNilRegistry = errors.New("diagnosis: registry is required")

	// ErrNilGatherer is returned by NewWorkflow when no gatherer is given.
	ErrNilGatherer = errors.New("diagnosis: gatherer is required")

	// ErrEmptyQuery is returned when a query carries neither device
	// names nor text to classify.
	ErrEmptyQuery = errors.New("diagnosis: query has no device name or text")
)

// Query is a diagnostic request, either already reduced to an intent plus
// extracted device names, or raw text for the intent classifier.
type Query struct {
	// Text is the raw query text. Used for intent classification when
	// DeviceNames is empty, and as a literal device name when no intent
	// source is wired.
	Text string `json:"text,omitempty"`

	// Intent is the classified intent, when known.
	Intent string `json:"intent,omitempty"`

	// DeviceNames are the extracted device name(s). The first name is
	// the subject of the diagnosis.
	DeviceNames []string `json:"device_names,omitempty"`
}

// Workflow composes resolution, gathering, analysis and synthesis into
// diagnostic runs. The registry is an explicitly constructed dependency
// passed in by reference; there is no ambient global state.
type Workflow struct {
	registry  *device.Registry
	gatherer  *Gatherer
	intents   IntentSource // optional
	detectors pattern.Config
	logger    Logger
}

// NewWorkflow creates a diagnostic workflow.
//
// The registry and gatherer are required; the intent source may be nil,
// in which case query text is treated as a literal device name.
func NewWorkflow(registry *device.Registry, gatherer *Gatherer, intents IntentSource, detectors pattern.Config) (*Workflow, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if gatherer == nil {
		return nil, ErrNilGatherer
	}
	return &Workflow{
		registry:  registry,
		gatherer:  gatherer,
		intents:   intents,
		detectors: detectors,
		logger:    noopLogger{},
	}, nil
}

// SetLogger sets the logger for the workflow.
func (w *Workflow) SetLogger(logger Logger) {
	w.logger = logger
}

// Execute runs one diagnosis.
//
// A report is always produced unless the query itself is a contract
// violation (ErrEmptyQuery): collaborator failures degrade the report,
// resolution misses become not-found or ambiguous report kinds.
// Cancelling ctx abandons in-flight gathering; partial results are still
// assembled into a report.
func (w *Workflow) Execute(ctx context.Context, q Query) (*DiagnosticReport, error) {
	report := &DiagnosticReport{
		ReportID:    uuid.NewString(),
		State:       StateResolving,
		GeneratedAt: time.Now().UTC(),
	}

	names, intentNote := w.extractNames(ctx, &q)
	if intentNote != "" {
		report.Notes = append(report.Notes, intentNote)
	}
	if len(names) == 0 {
		return nil, ErrEmptyQuery
	}

	res := w.registry.Resolve(names[0])
	switch res.Kind {
	case device.ResolutionNotFound:
		report.Kind = ReportNotFound
		report.Resolution = &res
		report.Hypotheses = []RootCauseHypothesis{}
		report.Summary = fmt.Sprintf("No device matching %q was found.", res.Query)
		if len(res.Suggestions) > 0 {
			report.Summary += fmt.Sprintf(" Did you mean: %v?", res.Suggestions)
		}
		report.State = StateComplete
		metrics.RunsTotal.WithLabelValues(string(report.Kind)).Inc()
		w.logger.Info("diagnosis resolved to not-found", "run_id", report.ReportID, "query", res.Query)
		return report, nil

	case device.ResolutionAmbiguous:
		report.Kind = ReportAmbiguous
		report.Resolution = &res
		report.Hypotheses = []RootCauseHypothesis{}
		report.Summary = fmt.Sprintf("%d devices match %q; specify which one to diagnose.",
			len(res.Candidates), res.Query)
		report.State = StateComplete
		metrics.RunsTotal.WithLabelValues(string(report.Kind)).Inc()
		w.logger.Info("diagnosis resolved to ambiguous", "run_id", report.ReportID,
			"query", res.Query, "candidates", len(res.Candidates))
		return report, nil
	}

	dev := *res.Device
	report.Device = &dev

	report.State = StateGathering
	dc := w.gatherer.Gather(ctx, dev.ID)
	report.Context = &dc
	report.UnavailableSources = dc.UnavailableSources()

	report.State = StateAnalyzing
	var findings []pattern.Finding
	if dc.HasEvents {
		tl := timeline.Normalize(dc.Events)
		report.Notes = append(report.Notes, tl.Notes()...)
		findings = w.analyze(tl)
	}
	for _, f := range findings {
		metrics.FindingsTotal.WithLabelValues(string(f.Kind)).Inc()
	}

	report.State = StateSynthesizing
	hypotheses, recommendations := synthesize(dev, dc, findings)
	report.Hypotheses = hypotheses
	report.Recommendations = recommendations
	report.Summary = summarize(dev, dc, hypotheses)

	report.Kind = ReportDiagnosis
	report.State = StateComplete
	metrics.RunsTotal.WithLabelValues(string(report.Kind)).Inc()

	w.logger.Info("diagnosis complete",
		"run_id", report.ReportID,
		"device_id", dev.ID,
		"hypotheses", len(hypotheses),
		"unavailable_sources", len(report.UnavailableSources),
	)

	return report, nil
}

// extractNames reduces a query to device names, consulting the intent
// classifier for raw text when one is wired. Classifier failure is
// non-fatal: the text falls back to being a literal name, with a note.
func (w *Workflow) extractNames(ctx context.Context, q *Query) ([]string, string) {
	if len(q.DeviceNames) > 0 {
		return q.DeviceNames, ""
	}
	if q.Text == "" {
		return nil, ""
	}

	if w.intents != nil {
		intent, err := w.intents.Classify(ctx, q.Text)
		if err == nil && len(intent.DeviceNames) > 0 {
			q.Intent = intent.Intent
			return intent.DeviceNames, ""
		}
		if err != nil {
			se := classify(err, SourceIntent)
			metrics.SourceFailures.WithLabelValues(SourceIntent, string(se.Kind)).Inc()
			w.logger.Warn("intent classification failed, treating text as device name", "error", err.Error())
			return []string{q.Text}, "intent classifier unavailable; query text treated as a device name"
		}
	}

	return []string{q.Text}, ""
}

// analyze runs the detectors for every device present in the timeline.
// Detectors are pure, so devices run in parallel with no shared state.
func (w *Workflow) analyze(tl timeline.Timeline) []pattern.Finding {
	ids := tl.DeviceIDs()
	if len(ids) == 0 {
		return nil
	}

	perDevice := make([][]pattern.Finding, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			perDevice[i] = pattern.DetectAll(tl.ForDevice(id), w.detectors)
		}(i, id)
	}
	wg.Wait()

	var findings []pattern.Finding
	for _, fs := range perDevice {
		findings = append(findings, fs...)
	}
	return findings
}
