package chord

import (
	"strings"

	"github.com/roach88/deckcfg/internal/model"
)

// ValidateBinding runs every add-binding check against the current list
// before anything is mutated: a chord was captured, the action is not
// empty, no binding has the same action (case-insensitive), no binding
// has the same combo. The first failing check is returned.
func ValidateBinding(bindings []model.Binding, combo, action string) error {
	action = strings.TrimSpace(action)
	if combo == "" {
		return model.NewValidationError(model.ReasonNoChord, "combo", combo, "record a shortcut first")
	}
	if action == "" {
		return model.NewValidationError(model.ReasonEmptyAction, "action", action, "enter an action name")
	}
	for _, b := range bindings {
		if model.SameName(b.Action, action) {
			return model.NewValidationError(model.ReasonDuplicateAction, "action", action, "action name %q exists", action)
		}
	}
	for _, b := range bindings {
		if b.Combo == combo {
			return model.NewValidationError(model.ReasonDuplicateCombo, "combo", combo, "shortcut %q exists", combo)
		}
	}
	return nil
}
