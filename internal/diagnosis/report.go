package diagnosis

import (
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/pattern"
	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// Gather slot / collaborator call names.
const (
	SourceStatus  = "status"
	SourceEvents  = "events"
	SourceSimilar = "similar"
	SourceSystem  = "system"
	SourceIntent  = "intent"
)

// SourceFailure records one collaborator failure for the report.
type SourceFailure struct {
	Source string    `json:"source"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// DiagnosticContext is the bundle of (possibly partial) data gathered
// before analysis. Each slot is independently absent when its
// collaborator call failed; the Has flags disambiguate an empty success
// from a failure for the slice-valued slots.
type DiagnosticContext struct {
	// Health is the device's live status; nil when the call failed.
	Health *DeviceStatus `json:"health,omitempty"`

	// Events is the bounded recent event history.
	Events    []timeline.RawEvent `json:"events,omitempty"`
	HasEvents bool                `json:"has_events"`

	// Similar lists semantically similar devices.
	Similar    []SimilarDevice `json:"similar,omitempty"`
	HasSimilar bool            `json:"has_similar"`

	// System is the coarse system status; nil when the call failed.
	System *SystemStatus `json:"system,omitempty"`

	// Unavailable records every collaborator failure, one entry per
	// failed slot.
	Unavailable []SourceFailure `json:"unavailable,omitempty"`
}

// UnavailableSources returns the names of the failed slots.
func (c DiagnosticContext) UnavailableSources() []string {
	var out []string
	for _, f := range c.Unavailable {
		out = append(out, f.Source)
	}
	return out
}

// AllUnavailable reports whether every gather slot failed.
func (c DiagnosticContext) AllUnavailable() bool {
	return c.Health == nil && !c.HasEvents && !c.HasSimilar && c.System == nil
}

// RunState tracks a diagnostic run through its stages.
type RunState string

// Run states.
const (
	StateResolving    RunState = "resolving"
	StateGathering    RunState = "gathering"
	StateAnalyzing    RunState = "analyzing"
	StateSynthesizing RunState = "synthesizing"
	StateComplete     RunState = "complete"
)

// ReportKind classifies the report produced by a run.
type ReportKind string

// Report kinds.
const (
	// ReportDiagnosis is a full diagnostic report for one device.
	ReportDiagnosis ReportKind = "diagnosis"

	// ReportNotFound means no device matched the query; Resolution
	// carries suggestions where derivable.
	ReportNotFound ReportKind = "not_found"

	// ReportAmbiguous means several devices matched; Resolution carries
	// the candidates for the caller to disambiguate.
	ReportAmbiguous ReportKind = "ambiguous"
)

// RootCauseHypothesis is one ranked explanation for the observed behaviour.
type RootCauseHypothesis struct {
	Description string `json:"description"`

	// Confidence is in [0,1]; hypotheses are ranked by it descending.
	Confidence float64 `json:"confidence"`

	// Patterns lists the findings supporting this hypothesis.
	Patterns []pattern.Finding `json:"patterns,omitempty"`
}

// DiagnosticReport is the output of a diagnostic run, consumed by
// presentation layers. One is always produced: in the worst case every
// collaborator failed and the report degrades to a registry-only,
// explicitly low-confidence result.
type DiagnosticReport struct {
	ReportID string     `json:"report_id"`
	Kind     ReportKind `json:"kind"`

	// Device is the resolved device, when resolution succeeded.
	Device *device.DeviceRecord `json:"device,omitempty"`

	// Resolution carries candidates or suggestions for ambiguous and
	// not-found reports.
	Resolution *device.Resolution `json:"resolution,omitempty"`

	Summary         string                `json:"summary"`
	Hypotheses      []RootCauseHypothesis `json:"hypotheses"`
	Recommendations []string              `json:"recommendations,omitempty"`

	// Context is the raw gathered context; nil for not-found and
	// ambiguous reports, which never reach the gathering stage.
	Context *DiagnosticContext `json:"context,omitempty"`

	// UnavailableSources names the data sources that failed, so the
	// consumer can weigh confidence accordingly.
	UnavailableSources []string `json:"unavailable_sources,omitempty"`

	// Notes carries data-quality notes (dropped events etc.).
	Notes []string `json:"notes,omitempty"`

	State       RunState  `json:"state"`
	GeneratedAt time.Time `json:"generated_at"`
}
