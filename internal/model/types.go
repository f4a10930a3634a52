package model

import "fmt"

// Count limits and defaults for the hardware/display settings.
const (
	MinGroups     = 1
	MaxGroups     = 10
	DefaultGroups = 4

	MinSlots     = 0
	MaxSlots     = 20
	DefaultSlots = 6
)

// Theme selects the light or dark palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// DesignVariant selects the visual design system.
type DesignVariant string

const (
	VariantDefault     DesignVariant = "default"
	VariantMaterialYou DesignVariant = "material-you"
	VariantWindows11   DesignVariant = "windows-11"
)

// Valid reports whether v is a known design variant.
func (v DesignVariant) Valid() bool {
	switch v {
	case VariantDefault, VariantMaterialYou, VariantWindows11:
		return true
	}
	return false
}

// Group is a named bucket of application names.
//
// Key is the stable internal id; DisplayName is what the user sees and may
// be renamed. Members keeps insertion order.
type Group struct {
	Key         string
	DisplayName string
	Members     []string
}

// HasMember reports whether app is in the group.
func (g Group) HasMember(app string) bool {
	for _, m := range g.Members {
		if m == app {
			return true
		}
	}
	return false
}

// Binding pairs a normalized key chord with an action name.
type Binding struct {
	ID     string `json:"id"`
	Combo  string `json:"combo"`
	Action string `json:"action"`
}

// ActionSlot is a numbered wiring point bound to zero or one Binding.
// An empty BindingID means unbound.
type ActionSlot struct {
	Ordinal   int
	BindingID string
}

// Bound reports whether the slot references a binding.
func (s ActionSlot) Bound() bool {
	return s.BindingID != ""
}

// SlotKey returns the persisted settings key for an ordinal ("setting-3").
func SlotKey(ordinal int) string {
	return fmt.Sprintf("setting-%d", ordinal)
}

// Configuration is the aggregate persisted as the configuration document.
// Groups is ordered; keys are unique within it.
type Configuration struct {
	GroupCount    int
	SlotCount     int
	Theme         Theme
	DesignVariant DesignVariant
	Groups        []Group
	Slots         []ActionSlot
}

// DefaultConfiguration returns the settings used when no document exists.
// Groups and slots are empty; the reconciler fills them to the counts.
func DefaultConfiguration() Configuration {
	return Configuration{
		GroupCount:    DefaultGroups,
		SlotCount:     DefaultSlots,
		Theme:         ThemeLight,
		DesignVariant: VariantDefault,
	}
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	out := c
	if c.Groups != nil {
		out.Groups = make([]Group, len(c.Groups))
		for i, g := range c.Groups {
			if g.Members != nil {
				g.Members = append(make([]string, 0, len(g.Members)), g.Members...)
			}
			out.Groups[i] = g
		}
	}
	if c.Slots != nil {
		out.Slots = append(make([]ActionSlot, 0, len(c.Slots)), c.Slots...)
	}
	return out
}

// GroupIndex returns the position of the group with key, or -1.
func (c *Configuration) GroupIndex(key string) int {
	for i := range c.Groups {
		if c.Groups[i].Key == key {
			return i
		}
	}
	return -1
}

// Group returns a pointer to the group with key, or nil.
func (c *Configuration) Group(key string) *Group {
	if i := c.GroupIndex(key); i >= 0 {
		return &c.Groups[i]
	}
	return nil
}

// OwnerOf returns the key of the group containing app, or "" when the app
// is unassigned.
func (c *Configuration) OwnerOf(app string) string {
	for _, g := range c.Groups {
		if g.HasMember(app) {
			return g.Key
		}
	}
	return ""
}

// Slot returns a pointer to the slot with ordinal, or nil.
func (c *Configuration) Slot(ordinal int) *ActionSlot {
	for i := range c.Slots {
		if c.Slots[i].Ordinal == ordinal {
			return &c.Slots[i]
		}
	}
	return nil
}

// CloneBindings returns a copy of the binding list.
func CloneBindings(bindings []Binding) []Binding {
	if bindings == nil {
		return nil
	}
	return append(make([]Binding, 0, len(bindings)), bindings...)
}

// FindBinding returns the index of the binding with id, or -1.
func FindBinding(bindings []Binding, id string) int {
	for i, b := range bindings {
		if b.ID == id {
			return i
		}
	}
	return -1
}
