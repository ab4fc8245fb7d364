// Package diag defines the diagnostic model shared by the verifier phases.
//
// Diagnostic is the central record: severity, a compact numeric Code with a
// stable string form, a human oriented message, the primary source.Span and
// optional notes. Producers emit through the Reporter interface so they stay
// decoupled from storage; BagReporter aggregates into a Bag, which supports
// sorting, deduplication and merging across units. DedupReporter filters
// exact repeats before they reach storage.
//
// The package performs no formatting or IO. Rendering lives in
// internal/diagfmt; orchestration in internal/driver.
//
// Keep the data model deterministic: diagnostics are serialised for caching
// and golden tests, so any new field must be stable across runs.
package diag
