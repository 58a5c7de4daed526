// Package database provides the SQLite connection layer for Gray Logic
// Diagnostics.
//
// The database holds a single concern: the device catalogue snapshot used
// to warm the in-memory registry on startup when the upstream device
// source is unreachable. It is not an event store; event history stays in
// the upstream source and is fetched per diagnostic run over a bounded
// window.
//
// The connection is configured for SQLite's single-writer model (one open
// connection, WAL mode, busy timeout) following the same settings proven
// in gray-logic-core deployments.
package database
