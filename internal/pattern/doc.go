// Package pattern classifies device behaviour from ordered state-change
// events.
//
// The detectors are pure functions over a single device's event sequence.
// They hold no state, never fail on empty or malformed input (they return
// an empty finding list instead), and are therefore safe to run in
// parallel across devices and idempotent over the same timeline.
//
// Three behaviours are recognised:
//
//   - AutomationTrigger: a device switching back ON shortly after being
//     switched OFF. Sub-minute re-activation after a manual OFF is the
//     signature of an automation racing the user; the faster the
//     re-activation, the higher the confidence.
//   - RapidChange: a burst of state transitions inside a sliding window,
//     flagging general instability regardless of direction.
//   - ConnectivityGap: prolonged silence between consecutive events,
//     suggesting the device dropped off the network. Unverifiable without
//     a liveness probe, so confidence is a fixed heuristic.
//
// Findings are additive and non-exclusive: the same subsequence may
// satisfy several detectors and each reports independently.
//
// All thresholds come from Config; the defaults mirror the empirical
// values in config.DetectorsConfig.
package pattern
