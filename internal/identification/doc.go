// Package identification decides which catalog release a scanned disc or
// sleeve is, from the identifiers an extractor read off the photographs.
//
// The engine is a fixed pipeline of pure steps: per-field normalization,
// cross-field validation that clears values leaking between fields, evidence
// scoring of each catalog candidate, and a three-state decision. Weights and
// thresholds are constants in weights.go and are not configurable.
//
// Identifier wraps the engine with a catalog lookup, the confirmation store
// and audit logging. The pure functions never log.
package identification
