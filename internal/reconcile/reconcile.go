// Package reconcile resizes, renames and prunes the entities of a
// Configuration while preserving as much prior state as possible.
//
// Every function operates on a working copy handed out by the entity
// store. Functions validate before they modify: a returned error means the
// configuration was not touched.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/roach88/deckcfg/internal/model"
)

// ResizeGroups brings the group list to n entries.
//
// The first min(n, len) existing groups survive in their current order with
// their keys, display names and members untouched. Missing groups get keys
// "Group {i}" (i is the 1-based position), disambiguated with a token from
// ids when the label is already taken. Groups beyond n are removed with
// their members, which thereby return to the unassigned pool.
func ResizeGroups(cfg *model.Configuration, n int, ids model.IDGenerator) error {
	if n < model.MinGroups || n > model.MaxGroups {
		return model.NewValidationError(model.ReasonOutOfRange, "groupCount", fmt.Sprint(n),
			"group count must be between %d and %d", model.MinGroups, model.MaxGroups)
	}

	keep := min(n, len(cfg.Groups))
	keys := make(map[string]bool, len(cfg.Groups)+n)
	names := make(map[string]bool, n)
	for i, g := range cfg.Groups {
		keys[g.Key] = true
		if i < keep {
			names[model.FoldName(g.DisplayName)] = true
		}
	}

	groups := make([]model.Group, 0, n)
	groups = append(groups, cfg.Groups[:keep]...)
	for i := keep + 1; i <= n; i++ {
		label := fmt.Sprintf("Group %d", i)
		key := label
		for keys[key] || names[model.FoldName(key)] {
			key = fmt.Sprintf("%s_%s", label, ids.Token())
		}
		keys[key] = true
		names[model.FoldName(key)] = true
		groups = append(groups, model.Group{Key: key, DisplayName: key, Members: []string{}})
	}

	cfg.Groups = groups
	cfg.GroupCount = n
	return nil
}

// ResizeSlots rebuilds the slot list as ordinals 1..n.
//
// An ordinal that existed before keeps its binding if that binding still
// exists; all other slots start unbound. Dropped ordinals lose their wiring
// only, the bindings themselves are untouched.
func ResizeSlots(cfg *model.Configuration, n int, bindings []model.Binding) error {
	if n < model.MinSlots || n > model.MaxSlots {
		return model.NewValidationError(model.ReasonOutOfRange, "slotCount", fmt.Sprint(n),
			"slot count must be between %d and %d", model.MinSlots, model.MaxSlots)
	}

	previous := make(map[int]string, len(cfg.Slots))
	for _, s := range cfg.Slots {
		previous[s.Ordinal] = s.BindingID
	}

	slots := make([]model.ActionSlot, n)
	for i := 1; i <= n; i++ {
		id := previous[i]
		if id != "" && model.FindBinding(bindings, id) < 0 {
			id = ""
		}
		slots[i-1] = model.ActionSlot{Ordinal: i, BindingID: id}
	}

	cfg.Slots = slots
	cfg.SlotCount = n
	return nil
}

// Conform resizes groups and slots to the counts already stored in cfg.
// Used after a load, when counts and collections may disagree.
func Conform(cfg *model.Configuration, bindings []model.Binding, ids model.IDGenerator) error {
	if err := ResizeGroups(cfg, cfg.GroupCount, ids); err != nil {
		return err
	}
	return ResizeSlots(cfg, cfg.SlotCount, bindings)
}

// RenameGroup changes the display name of the group with key. The key, and
// with it membership, is stable.
//
// Returns changed=false when the trimmed name equals the current one.
// Rejects empty names and names already used by another group (compared
// case-insensitively).
func RenameGroup(cfg *model.Configuration, key, name string) (bool, error) {
	g := cfg.Group(key)
	if g == nil {
		return false, model.NewValidationError(model.ReasonUnknownGroup, "group", key, "group %q does not exist", key)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return false, model.NewValidationError(model.ReasonEmptyName, "displayName", name, "group name cannot be empty")
	}
	if name == g.DisplayName {
		return false, nil
	}

	for _, other := range cfg.Groups {
		if other.Key != key && model.SameName(other.DisplayName, name) {
			return false, model.NewValidationError(model.ReasonDuplicateName, "displayName", name,
				"group name %q is already used", name)
		}
	}

	g.DisplayName = name
	return true, nil
}

// DeleteBinding removes the binding with id and clears every slot that
// referenced it. Returns the new binding list and the number of cleared
// slots.
func DeleteBinding(cfg *model.Configuration, bindings []model.Binding, id string) ([]model.Binding, int, error) {
	idx := model.FindBinding(bindings, id)
	if idx < 0 {
		return nil, 0, model.NewValidationError(model.ReasonUnknownBinding, "binding", id, "binding %q does not exist", id)
	}

	out := make([]model.Binding, 0, len(bindings)-1)
	out = append(out, bindings[:idx]...)
	out = append(out, bindings[idx+1:]...)

	cleared := 0
	for i := range cfg.Slots {
		if cfg.Slots[i].BindingID == id {
			cfg.Slots[i].BindingID = ""
			cleared++
		}
	}
	return out, cleared, nil
}

// AssignSlot wires slot ordinal to the binding with id. An empty id
// unbinds the slot. Returns changed=false when the slot already points at id.
func AssignSlot(cfg *model.Configuration, bindings []model.Binding, ordinal int, id string) (bool, error) {
	slot := cfg.Slot(ordinal)
	if slot == nil {
		return false, model.NewValidationError(model.ReasonUnknownSlot, "slot", fmt.Sprint(ordinal),
			"slot %d does not exist (1..%d)", ordinal, len(cfg.Slots))
	}
	if id != "" && model.FindBinding(bindings, id) < 0 {
		return false, model.NewValidationError(model.ReasonUnknownBinding, "binding", id, "binding %q does not exist", id)
	}
	if slot.BindingID == id {
		return false, nil
	}
	slot.BindingID = id
	return true, nil
}
