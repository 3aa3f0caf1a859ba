// Package confirmations records identifications the user has confirmed, keyed
// by the scan fingerprint, so a later scan of the same item can report the
// earlier choice next to the engine's decision.
//
// The store is a small JSON file rewritten atomically on every change. A
// sidecar lock file serializes writers across processes.
package confirmations
