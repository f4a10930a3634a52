// Package harness runs editor scenarios: scripted sequences of edits,
// recordings and key presses applied to a real session, followed by
// assertions on the resulting state.
//
// # Scenario Format
//
//	name: bindings_and_slots
//	description: "Deleting a binding clears its slot"
//	apps: [Spotify, Chrome]
//	steps:
//	  - op: add_binding
//	    combo: ctrl+k
//	    action: open_search
//	  - op: assign_slot
//	    slot: 1
//	    binding: open_search
//	  - op: add_binding
//	    combo: Ctrl+K
//	    action: anything
//	    expect_error: DUPLICATE_COMBO
//	assertions:
//	  - type: slot
//	    slot: 1
//	    binding: open_search
//
// # Step Ops
//
//   - settings: groups, slots, theme, variant (omitted fields keep their value)
//   - rename: group, name
//   - move: app, from, to ("pool" or a group key)
//   - add_binding: action, and combo (omit combo to use the recorded chord)
//   - delete_binding: binding (id or action name)
//   - assign_slot: slot, binding (empty clears)
//   - record: combo, pressed while recording
//   - press: combo, pressed outside recording
//
// A step with expect_error must fail with that validation reason; any other
// step must succeed.
//
// # Assertion Types
//
//   - group_members: group, members (exact, in order)
//   - display_name: group, name
//   - pool: apps (exact, in inventory order)
//   - slot: slot, binding (id or action name; empty means unbound)
//   - fired: actions (exact, in firing order)
//   - binding_count: count
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a manual
// clock and sequential ids ("bind-1", "t1"), so the documents it persists
// are reproducible and can be compared to golden files.
package harness
