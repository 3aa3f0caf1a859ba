// Package logging assembles structured slog loggers and formatting helpers used
// across sleeve.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with scan and batch identifiers. The
// package also provides a no-op logger for tests and for wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so identification
// audit lines keep the same keys regardless of which command emitted them.
package logging
