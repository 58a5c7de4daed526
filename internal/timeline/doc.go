// Package timeline normalises raw device state-change events into an
// ordered, deduplicated sequence for pattern analysis.
//
// Raw events arrive from the upstream device source in whatever order and
// shape its API returns them: possibly duplicated, possibly unordered,
// occasionally carrying timestamps that fail to parse. Normalize absorbs
// all of that:
//
//   - duplicate event IDs are collapsed to their first occurrence
//   - events are stably sorted oldest-first (analysis order invariant)
//   - malformed timestamps are dropped, never fatal, and surfaced as
//     data-quality notes on the eventual diagnostic report
//
// A normalised Timeline is immutable from the caller's perspective;
// accessors return copies.
package timeline
