// Package model provides the configuration types shared by every deckcfg
// package: groups, bindings, action slots and the Configuration aggregate.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import model; model imports nothing internal.
//
// Key constraints:
//   - An app name is a member of at most one Group.
//   - Binding combos are unique; binding actions are unique case-insensitively.
//   - GroupCount == len(Groups) and SlotCount == len(Slots) after reconciliation.
//   - Slot ordinals are 1..SlotCount in order.
package model
