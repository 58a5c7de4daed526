// Package diagnosis orchestrates diagnostic runs for anomalous device
// behaviour.
//
// A run moves through five stages:
//
//	Resolving → Gathering → Analyzing → Synthesizing → Complete
//
// Resolving maps the query's device name onto the registry (ambiguity and
// not-found are report kinds, never errors). Gathering fans out to the
// external collaborators — current status, recent event history, similar
// devices, coarse system status — as four independent tasks joined with a
// settle-all barrier: every task reports its own success or failure, no
// failure aborts a sibling, and the workflow proceeds with whichever
// subset succeeded. Analyzing normalises the events and runs the pattern
// detectors. Synthesizing maps findings onto ranked, confidence-scored
// root-cause hypotheses with recommendations.
//
// # Failure model
//
// Collaborator failures are classified (rate-limited, not-found, timeout,
// transient network, unauthorised); only the transient kinds are retried,
// with bounded jittered exponential backoff. Every failure folds into the
// diagnostic context as an absent slot plus an entry in the unavailable
// list — a report is ALWAYS produced, degrading to an explicitly
// low-confidence registry-only report when every collaborator fails.
// Only contract violations (nil dependencies) abort a run.
package diagnosis
