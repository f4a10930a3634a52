package reconcile

import (
	"fmt"

	"github.com/roach88/deckcfg/internal/model"
)

// Settings are the user-tunable hardware/display settings.
type Settings struct {
	GroupCount    int
	SlotCount     int
	Theme         model.Theme
	DesignVariant model.DesignVariant
}

// SettingsOf extracts the current settings of cfg.
func SettingsOf(cfg model.Configuration) Settings {
	return Settings{
		GroupCount:    cfg.GroupCount,
		SlotCount:     cfg.SlotCount,
		Theme:         cfg.Theme,
		DesignVariant: cfg.DesignVariant,
	}
}

// Validate checks every field without touching any configuration.
func (s Settings) Validate() error {
	if s.GroupCount < model.MinGroups || s.GroupCount > model.MaxGroups {
		return model.NewValidationError(model.ReasonOutOfRange, "groupCount", fmt.Sprint(s.GroupCount),
			"group count must be between %d and %d", model.MinGroups, model.MaxGroups)
	}
	if s.SlotCount < model.MinSlots || s.SlotCount > model.MaxSlots {
		return model.NewValidationError(model.ReasonOutOfRange, "slotCount", fmt.Sprint(s.SlotCount),
			"slot count must be between %d and %d", model.MinSlots, model.MaxSlots)
	}
	if !s.Theme.Valid() {
		return model.NewValidationError(model.ReasonInvalidTheme, "theme", string(s.Theme), "unknown theme %q", s.Theme)
	}
	if !s.DesignVariant.Valid() {
		return model.NewValidationError(model.ReasonInvalidVariant, "designVariant", string(s.DesignVariant),
			"unknown design variant %q", s.DesignVariant)
	}
	return nil
}

// ApplySettings validates s and applies it to cfg, resizing groups and slots
// when their counts change. Reports whether a count changed.
func ApplySettings(cfg *model.Configuration, bindings []model.Binding, s Settings, ids model.IDGenerator) (structural bool, err error) {
	if err := s.Validate(); err != nil {
		return false, err
	}

	if s.GroupCount != cfg.GroupCount || len(cfg.Groups) != s.GroupCount {
		if err := ResizeGroups(cfg, s.GroupCount, ids); err != nil {
			return false, err
		}
		structural = true
	}
	if s.SlotCount != cfg.SlotCount || len(cfg.Slots) != s.SlotCount {
		if err := ResizeSlots(cfg, s.SlotCount, bindings); err != nil {
			return false, err
		}
		structural = true
	}
	cfg.Theme = s.Theme
	cfg.DesignVariant = s.DesignVariant
	return structural, nil
}
