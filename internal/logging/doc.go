// Package logging assembles structured slog loggers and formatting helpers used
// across scribe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so outbound calls are tagged with
// their request IDs. Every handler built here masks credential-bearing
// attributes (authorization, token, password) before they reach a sink. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
