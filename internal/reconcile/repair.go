package reconcile

import (
	"fmt"
	"strings"

	"github.com/roach88/deckcfg/internal/model"
)

// Repair drops every reference in cfg that breaks an invariant and returns
// one violation per dropped reference. The configuration as a whole is
// never discarded.
//
// Counts are clamped to their ranges. Groups with empty or duplicate keys
// are dropped. Members that are empty, repeated, or already owned by an
// earlier group are dropped. Display names that are empty or collide with
// an earlier group's name are reset to the key. Slots are renumbered and
// references to unknown bindings cleared.
func Repair(cfg *model.Configuration, bindings []model.Binding) []*model.InvariantViolation {
	var issues []*model.InvariantViolation
	report := func(kind, subject, format string, args ...any) {
		issues = append(issues, &model.InvariantViolation{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)})
	}

	if c := clamp(cfg.GroupCount, model.MinGroups, model.MaxGroups); c != cfg.GroupCount {
		report(model.InvariantCount, "groupCount", "clamped %d to %d", cfg.GroupCount, c)
		cfg.GroupCount = c
	}
	if c := clamp(cfg.SlotCount, model.MinSlots, model.MaxSlots); c != cfg.SlotCount {
		report(model.InvariantCount, "slotCount", "clamped %d to %d", cfg.SlotCount, c)
		cfg.SlotCount = c
	}

	owner := make(map[string]string)
	seenKeys := make(map[string]bool)
	seenNames := make(map[string]bool)
	groups := make([]model.Group, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		if g.Key == "" || seenKeys[g.Key] {
			report(model.InvariantSingleOwner, g.Key, "duplicate or empty group key dropped")
			continue
		}
		seenKeys[g.Key] = true

		members := make([]string, 0, len(g.Members))
		for _, app := range g.Members {
			switch prev, owned := owner[app]; {
			case strings.TrimSpace(app) == "":
				report(model.InvariantSingleOwner, g.Key, "empty app name dropped")
			case owned && prev == g.Key:
				report(model.InvariantSingleOwner, app, "repeated in group %q", g.Key)
			case owned:
				report(model.InvariantSingleOwner, app, "already in group %q, dropped from %q", prev, g.Key)
			default:
				owner[app] = g.Key
				members = append(members, app)
			}
		}
		g.Members = members

		name := strings.TrimSpace(g.DisplayName)
		if name == "" {
			name = g.Key
		} else if seenNames[model.FoldName(name)] {
			report(model.InvariantUniqueName, g.Key, "display name %q already used, reset to key", name)
			name = g.Key
		}
		g.DisplayName = name
		seenNames[model.FoldName(name)] = true
		groups = append(groups, g)
	}
	cfg.Groups = groups

	slots := make([]model.ActionSlot, 0, len(cfg.Slots))
	seenOrdinals := make(map[int]bool)
	for _, s := range cfg.Slots {
		if s.Ordinal < 1 || seenOrdinals[s.Ordinal] {
			report(model.InvariantSlotReference, fmt.Sprint(s.Ordinal), "invalid or duplicate slot ordinal dropped")
			continue
		}
		seenOrdinals[s.Ordinal] = true
		if s.BindingID != "" && model.FindBinding(bindings, s.BindingID) < 0 {
			report(model.InvariantSlotReference, s.BindingID, "slot %d referenced a missing binding", s.Ordinal)
			s.BindingID = ""
		}
		slots = append(slots, s)
	}
	cfg.Slots = slots

	return issues
}

// RepairBindings drops bindings with empty fields and bindings whose id,
// combo or case-folded action repeats an earlier one.
func RepairBindings(bindings []model.Binding) ([]model.Binding, []*model.InvariantViolation) {
	var issues []*model.InvariantViolation
	ids := make(map[string]bool)
	combos := make(map[string]bool)
	actions := make(map[string]bool)

	out := make([]model.Binding, 0, len(bindings))
	for _, b := range bindings {
		b.Action = strings.TrimSpace(b.Action)
		folded := model.FoldName(b.Action)
		switch {
		case b.ID == "" || b.Combo == "" || b.Action == "":
			issues = append(issues, &model.InvariantViolation{Kind: model.InvariantUniqueBinding, Subject: b.ID, Detail: "binding with empty field dropped"})
		case ids[b.ID], combos[b.Combo], actions[folded]:
			issues = append(issues, &model.InvariantViolation{Kind: model.InvariantUniqueBinding, Subject: b.ID, Detail: "duplicate binding dropped"})
		default:
			ids[b.ID] = true
			combos[b.Combo] = true
			actions[folded] = true
			out = append(out, b)
		}
	}
	return out, issues
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
