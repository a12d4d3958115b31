// Package services defines shared utilities consumed by the planner, the
// compressor, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified with errors.Is and mapped to process exit codes.
//
// Use these helpers when wiring new steps so error handling and observability
// stay uniform across the tool.
package services
