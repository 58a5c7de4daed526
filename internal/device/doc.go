// Package device provides the in-memory device registry for Gray Logic
// Diagnostics.
//
// The registry is the catalogue of known devices for a diagnostic
// session. It is populated from the upstream device source (or from the
// SQLite snapshot when the source is unreachable) and queried by the
// diagnostic workflow for resolution and filtering.
//
// # Key Types
//
//   - DeviceRecord: device metadata (identity, room, capabilities, liveness)
//   - Registry: thread-safe indexes by ID, capability and room
//   - Resolution: the outcome of fuzzy name resolution — resolved,
//     not found (with suggestions) or ambiguous (with candidates)
//
// # Resolution semantics
//
// Resolve performs case-insensitive partial matching on device names.
// Ambiguity is a value, not an error: when several devices match, the
// caller receives every candidate and must disambiguate. This keeps
// "which lamp did you mean?" a first-class answer rather than a failure.
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected
// by a read-write mutex; accessors return copies so callers can never
// mutate cached records. Registration happens outside the diagnostic hot
// path (startup sync or explicit refresh).
package device
