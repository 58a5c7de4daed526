// Package logging provides structured logging for Gray Logic Diagnostics.
//
// It wraps the standard library's log/slog with:
//   - Configuration-driven setup (level, format, output)
//   - Default fields on every record (service, version)
//   - A Default() logger for early startup before config is loaded
//
// All log output is structured (JSON in production, text for development)
// so diagnostic runs can be correlated by run_id and device_id fields.
package logging
