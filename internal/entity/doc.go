// Package entity owns the Configuration aggregate and the binding list for
// the lifetime of an editing session.
//
// ARCHITECTURE:
//
// Single source of truth:
// All components read through Store snapshots and write through
// Store.Mutate. Nobody keeps an independent copy that could drift.
//
// Serialized mutations:
// Mutate runs each mutation against a private working copy and commits it
// wholesale. Mutations never interleave: the commit observer for one
// mutation finishes before the next mutation starts. A mutation that
// returns an error commits nothing.
//
// Durability tracking:
// Each commit bumps a per-stream generation and marks the stream dirty.
// MarkDurable clears the dirty flag only when the saved generation is
// still the latest, so a slow save of an older payload never vouches for
// newer state.
package entity
