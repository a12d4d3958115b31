// Package logging assembles structured slog loggers and formatting helpers used
// across assetpress.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so planning and compression code
// can tag log lines with the run ID and stage automatically. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Console output goes to stderr so command output on stdout (plans, tables,
// JSON) stays machine-readable. When a state directory is configured, a JSON
// copy of every record is appended to assetpress.log inside it.
package logging
