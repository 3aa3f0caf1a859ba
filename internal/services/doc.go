// Package services defines shared utilities consumed by the identification
// pipeline, its storage collaborators, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp scan and batch identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent CLI exit codes.
//
// Use these helpers when wiring new commands so error reporting and
// observability stay uniform.
package services
