package diagnosis

import (
	"fmt"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/pattern"
)

// Confidence values for hypotheses not derived from detector findings.
const (
	// offlineConfidence applies when the live status reports the device
	// offline; strong but not certain (status itself may be stale).
	offlineConfidence = 0.85

	// degradedConfidence applies to the registry-only fallback when
	// every collaborator failed. Explicitly low: it rests on cached
	// metadata alone.
	degradedConfidence = 0.20
)

// staleLastSeen is how old a last-seen timestamp must be before the
// degraded fallback mentions it as suspicious.
const staleLastSeen = time.Hour

// synthesize maps findings and context onto ranked root-cause hypotheses
// with recommendations.
//
// One hypothesis is produced per finding kind present (overlapping
// findings stay additive at the finding level; deduplication happens
// here, at the hypothesis level, by merging findings of the same kind).
// Hypotheses are ranked by confidence descending.
func synthesize(dev device.DeviceRecord, dc DiagnosticContext, findings []pattern.Finding) ([]RootCauseHypothesis, []string) {
	byKind := make(map[pattern.Kind][]pattern.Finding)
	for _, f := range findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	var hypotheses []RootCauseHypothesis
	var recommendations []string

	if group, ok := byKind[pattern.KindAutomationTrigger]; ok {
		hypotheses = append(hypotheses, RootCauseHypothesis{
			Description: fmt.Sprintf(
				"An automation or schedule is likely re-activating %q after it is switched off", dev.Name),
			Confidence: maxConfidence(group),
			Patterns:   group,
		})
		recommendations = append(recommendations,
			"Review automations, scenes and schedules that target this device, starting with recently added or modified ones.",
			"Temporarily disable suspect automations and observe whether the device stays off.",
		)
	}

	if group, ok := byKind[pattern.KindRapidChange]; ok {
		hypotheses = append(hypotheses, RootCauseHypothesis{
			Description: fmt.Sprintf(
				"%q is changing state unusually often, suggesting conflicting automations or a faulty device", dev.Name),
			Confidence: maxConfidence(group),
			Patterns:   group,
		})
		recommendations = append(recommendations,
			"Check for automations with overlapping triggers acting on this device.",
			"Inspect the physical device; flapping can indicate a failing relay, switch or sensor.",
		)
	}

	if group, ok := byKind[pattern.KindConnectivityGap]; ok {
		hypotheses = append(hypotheses, RootCauseHypothesis{
			Description: fmt.Sprintf(
				"%q appears to be intermittently losing connectivity", dev.Name),
			Confidence: maxConfidence(group),
			Patterns:   group,
		})
		recommendations = append(recommendations,
			"Check the device's power supply and its network or bus link.",
			"Verify the gateway serving this device stayed online during the reported gaps.",
		)
	}

	if dc.Health != nil && !dc.Health.Online {
		hypotheses = append(hypotheses, RootCauseHypothesis{
			Description: fmt.Sprintf(
				"%q is currently offline according to its last reported status", dev.Name),
			Confidence: offlineConfidence,
		})
		recommendations = append(recommendations,
			"Confirm the device has power and re-check its status.",
		)
	}

	// Worst case: every collaborator failed. Produce a registry-only,
	// explicitly low-confidence hypothesis rather than nothing.
	if dc.AllUnavailable() {
		desc := fmt.Sprintf("No diagnostic data could be gathered for %q", dev.Name)
		if !dev.LastSeen.IsZero() && time.Since(dev.LastSeen) > staleLastSeen {
			desc = fmt.Sprintf("%s; the registry last saw it at %s, which may itself indicate a problem",
				desc, dev.LastSeen.Format(time.RFC3339))
		}
		hypotheses = append(hypotheses, RootCauseHypothesis{
			Description: desc,
			Confidence:  degradedConfidence,
		})
		recommendations = append(recommendations,
			"Retry the diagnosis once the data sources are reachable; this result is based on cached registry data only.",
		)
	}

	sort.SliceStable(hypotheses, func(i, j int) bool {
		return hypotheses[i].Confidence > hypotheses[j].Confidence
	})

	return hypotheses, dedupe(recommendations)
}

// summarize builds the one-line report summary.
func summarize(dev device.DeviceRecord, dc DiagnosticContext, hypotheses []RootCauseHypothesis) string {
	var s string
	if len(hypotheses) == 0 {
		s = fmt.Sprintf("No anomalous behaviour detected for %q.", dev.Name)
	} else {
		top := hypotheses[0]
		s = fmt.Sprintf("%s (confidence %.2f).", top.Description, top.Confidence)
	}
	if n := len(dc.Unavailable); n > 0 {
		s += fmt.Sprintf(" %d data source(s) were unavailable; weigh confidence accordingly.", n)
	}
	return s
}

// maxConfidence returns the highest confidence in a finding group.
func maxConfidence(findings []pattern.Finding) float64 {
	best := 0.0
	for _, f := range findings {
		if f.Confidence > best {
			best = f.Confidence
		}
	}
	return best
}

// dedupe removes duplicate strings preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
