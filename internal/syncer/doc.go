// Package syncer persists editor state to the backend without issuing one
// request per edit.
//
// Each stream (configuration, bindings) is independent:
//
//   - Schedule records the latest payload and (re)arms a quiet-window timer;
//     a burst of edits inside the window collapses into one save.
//   - FlushNow sends the latest payload immediately and waits for it.
//   - At most one save per stream is in flight. A flush that finds a save in
//     flight waits for it, then sends whatever is newest.
//   - A failed save is reported and its payload is kept as pending unless a
//     newer payload arrived meanwhile. Nothing is retried until the next
//     Schedule or FlushNow (last write wins).
package syncer
