package pattern

import (
	"time"
)

// Kind identifies the behaviour a finding describes.
type Kind string

// Finding kinds.
const (
	KindAutomationTrigger Kind = "automation_trigger"
	KindRapidChange       Kind = "rapid_change"
	KindConnectivityGap   Kind = "connectivity_gap"
)

// Confidence levels for the automation-trigger bands and the
// connectivity heuristic.
const (
	// ConfidenceFastTrigger applies when the OFF→ON gap is inside the
	// fast band: near-certain automation involvement.
	ConfidenceFastTrigger = 0.95

	// ConfidenceSlowTrigger applies inside the slow band.
	ConfidenceSlowTrigger = 0.80

	// ConfidenceGap is the fixed heuristic for connectivity gaps; a gap
	// in the event stream cannot be verified without a liveness probe.
	ConfidenceGap = 0.80

	// ConfidenceRapidCap bounds rapid-change confidence however dense
	// the transition burst.
	ConfidenceRapidCap = 0.95
)

// Finding is a detector's classified interpretation of an event
// subsequence. Findings are read-only downstream.
type Finding struct {
	// Kind classifies the behaviour.
	Kind Kind `json:"kind"`

	// DeviceID is the device the finding applies to.
	DeviceID string `json:"device_id"`

	// Confidence is the detector's confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Description is a human-readable summary of the behaviour.
	Description string `json:"description"`

	// Evidence lists the IDs of the supporting events.
	Evidence []string `json:"evidence,omitempty"`

	// Occurrences counts how many times the behaviour was observed
	// (qualifying transitions, peak window transitions, or 1 per gap).
	Occurrences int `json:"occurrences"`

	// GapStart, GapEnd and GapDuration are set for connectivity gaps.
	GapStart    *time.Time    `json:"gap_start,omitempty"`
	GapEnd      *time.Time    `json:"gap_end,omitempty"`
	GapDuration time.Duration `json:"gap_duration,omitempty"`
}

// Config holds the detector thresholds.
//
// The defaults are empirical field values; treat them as tunables and
// override from configuration, not by editing constants.
type Config struct {
	// TriggerFastBand: OFF→ON gaps below this score ConfidenceFastTrigger.
	TriggerFastBand time.Duration

	// TriggerSlowBand: gaps below this (but at or above TriggerFastBand)
	// score ConfidenceSlowTrigger. Gaps at or beyond it are not reported.
	TriggerSlowBand time.Duration

	// RapidWindow is the sliding window for rapid-change detection.
	RapidWindow time.Duration

	// RapidMinTransitions is the transition count inside one window that
	// qualifies as instability.
	RapidMinTransitions int

	// GapCeiling: silence between consecutive events beyond this is a
	// connectivity gap.
	GapCeiling time.Duration
}

// DefaultConfig returns the empirical default thresholds.
func DefaultConfig() Config {
	return Config{
		TriggerFastBand:     5 * time.Second,
		TriggerSlowBand:     60 * time.Second,
		RapidWindow:         10 * time.Minute,
		RapidMinTransitions: 4,
		GapCeiling:          time.Hour,
	}
}
