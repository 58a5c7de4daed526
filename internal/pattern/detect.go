package pattern

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/timeline"
)

// DetectAll runs every detector over one device's ordered events and
// returns the combined findings. Findings are additive: the same events
// may support several kinds at once.
func DetectAll(events []timeline.StateEvent, cfg Config) []Finding {
	var findings []Finding
	findings = append(findings, DetectAutomationTriggers(events, cfg)...)
	findings = append(findings, DetectRapidChanges(events, cfg)...)
	findings = append(findings, DetectConnectivityGaps(events, cfg)...)
	return findings
}

// DetectAutomationTriggers looks for OFF→ON re-activations fast enough to
// implicate an automation.
//
// For every OFF→ON transition, the gap since the immediately preceding
// ON→OFF is measured: below TriggerFastBand scores ConfidenceFastTrigger,
// below TriggerSlowBand scores ConfidenceSlowTrigger, and anything slower
// is not reported. Qualifying transitions aggregate into a single finding
// whose confidence is the maximum over its transitions and whose
// occurrence count is the number of qualifying transitions.
func DetectAutomationTriggers(events []timeline.StateEvent, cfg Config) []Finding {
	if len(events) < 2 {
		return nil
	}

	var (
		lastState   = "" // "" until the first switch value is seen
		lastOffAt   time.Time
		lastOffID   string
		evidence    []string
		occurrences int
		best        float64
		fastestGap  time.Duration
	)

	for _, e := range events {
		on, off := isOn(e.Value), isOff(e.Value)
		if !on && !off {
			continue
		}

		if on && lastState == "off" {
			gap := e.Timestamp.Sub(lastOffAt)
			if conf := triggerConfidence(gap, cfg); conf > 0 {
				occurrences++
				if lastOffID != "" {
					evidence = append(evidence, lastOffID)
				}
				if e.EventID != "" {
					evidence = append(evidence, e.EventID)
				}
				if conf > best || occurrences == 1 {
					best = conf
				}
				if occurrences == 1 || gap < fastestGap {
					fastestGap = gap
				}
			}
		}

		if on {
			lastState = "on"
		} else {
			lastState = "off"
			lastOffAt = e.Timestamp
			lastOffID = e.EventID
		}
	}

	if occurrences == 0 {
		return nil
	}

	return []Finding{{
		Kind:       KindAutomationTrigger,
		DeviceID:   events[0].DeviceID,
		Confidence: best,
		Description: fmt.Sprintf(
			"switched back on %s after being turned off (%d occurrence(s)); consistent with an automation re-activating the device",
			formatGap(fastestGap), occurrences),
		Evidence:    evidence,
		Occurrences: occurrences,
	}}
}

// triggerConfidence maps an OFF→ON gap to a confidence band.
// Confidence is monotonic non-increasing as the gap grows; gaps at or
// beyond the slow band score zero and are not reported.
func triggerConfidence(gap time.Duration, cfg Config) float64 {
	switch {
	case gap < 0:
		return 0
	case gap < cfg.TriggerFastBand:
		return ConfidenceFastTrigger
	case gap < cfg.TriggerSlowBand:
		return ConfidenceSlowTrigger
	default:
		return 0
	}
}

// DetectRapidChanges flags bursts of state transitions inside a sliding
// window. Unlike the automation-trigger detector it counts transitions in
// either direction, so it catches general flapping.
//
// Confidence scales with the peak transition density relative to the
// qualifying floor and is capped at ConfidenceRapidCap.
func DetectRapidChanges(events []timeline.StateEvent, cfg Config) []Finding {
	if cfg.RapidMinTransitions < 1 || len(events) < 2 {
		return nil
	}

	// A transition is any event whose value differs from the previous one.
	var transitions []timeline.StateEvent
	for i := 1; i < len(events); i++ {
		if events[i].Value != events[i-1].Value {
			transitions = append(transitions, events[i])
		}
	}
	if len(transitions) < cfg.RapidMinTransitions {
		return nil
	}

	// Two-pointer sweep for the densest window.
	peak, peakStart, peakEnd := 0, 0, 0
	lo := 0
	for hi := range transitions {
		for transitions[hi].Timestamp.Sub(transitions[lo].Timestamp) > cfg.RapidWindow {
			lo++
		}
		if count := hi - lo + 1; count > peak {
			peak, peakStart, peakEnd = count, lo, hi
		}
	}
	if peak < cfg.RapidMinTransitions {
		return nil
	}

	var evidence []string
	for _, e := range transitions[peakStart : peakEnd+1] {
		if e.EventID != "" {
			evidence = append(evidence, e.EventID)
		}
	}

	conf := rapidConfidence(peak, cfg.RapidMinTransitions)

	return []Finding{{
		Kind:       KindRapidChange,
		DeviceID:   events[0].DeviceID,
		Confidence: conf,
		Description: fmt.Sprintf(
			"%d state transitions within %s; the device state is unstable",
			peak, formatGap(cfg.RapidWindow)),
		Evidence:    evidence,
		Occurrences: peak,
	}}
}

// rapidConfidence scales linearly with the ratio of observed transitions
// to the qualifying floor, capped at ConfidenceRapidCap. At exactly the
// floor it yields 0.60; each additional transition adds density.
func rapidConfidence(peak, floor int) float64 {
	conf := 0.60 * float64(peak) / float64(floor)
	if conf > ConfidenceRapidCap {
		return ConfidenceRapidCap
	}
	return conf
}

// DetectConnectivityGaps reports silences between consecutive events that
// exceed the configured ceiling, regardless of event values. Each gap is
// an independent finding carrying its start, end and duration.
//
// Silence alone cannot prove the device was offline (it may simply have
// had nothing to report), so confidence is the fixed ConfidenceGap
// heuristic.
func DetectConnectivityGaps(events []timeline.StateEvent, cfg Config) []Finding {
	if len(events) < 2 {
		return nil
	}

	var findings []Finding
	for i := 1; i < len(events); i++ {
		gap := events[i].Timestamp.Sub(events[i-1].Timestamp)
		if gap <= cfg.GapCeiling {
			continue
		}

		start := events[i-1].Timestamp
		end := events[i].Timestamp
		var evidence []string
		if events[i-1].EventID != "" {
			evidence = append(evidence, events[i-1].EventID)
		}
		if events[i].EventID != "" {
			evidence = append(evidence, events[i].EventID)
		}

		findings = append(findings, Finding{
			Kind:       KindConnectivityGap,
			DeviceID:   events[i].DeviceID,
			Confidence: ConfidenceGap,
			Description: fmt.Sprintf(
				"no events for %s (from %s to %s); the device may have lost connectivity",
				formatGap(gap),
				start.Format(time.RFC3339),
				end.Format(time.RFC3339)),
			Evidence:    evidence,
			Occurrences: 1,
			GapStart:    &start,
			GapEnd:      &end,
			GapDuration: gap,
		})
	}

	return findings
}

// isOn reports whether a value text represents a switch-on state.
func isOn(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "active":
		return true
	}
	return false
}

// isOff reports whether a value text represents a switch-off state.
func isOff(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "off", "false", "0", "inactive":
		return true
	}
	return false
}

// formatGap renders a duration for descriptions, trimming sub-second
// noise on long gaps.
func formatGap(d time.Duration) string {
	if d >= time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
