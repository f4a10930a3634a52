// Package store provides SQLite-backed durable storage for the editor's
// persisted documents.
//
// Each document (configuration, bindings) is stored as its JSON body with a
// content revision. Every accepted save also appends a history row, so
// earlier revisions can be listed and inspected.
//
// # Patterns
//
// Idempotent saves:
//   - Saving a body whose revision equals the current one is a no-op
//   - No history row is written for it
//
// Logical ordering:
//   - History is ordered by seq INTEGER, never by timestamps
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Revisions are computed with model.Revision (SHA-256 with domain
// separation).
package store
