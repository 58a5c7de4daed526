// Package source provides device-source implementations for the
// diagnostic workflow.
//
// The production collaborators (cloud API client, embedding index,
// intent classifier) live outside this repository and are wired in by
// the host system. Local is a file-backed stand-in that serves a device
// catalogue and event history from JSON fixture files, so the service
// can run end-to-end during development and integration work.
package source
