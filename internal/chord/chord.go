// Package chord turns abstract key events into normalized chord strings,
// records chords for new bindings and dispatches live chords to bound
// actions.
//
// A chord is the active modifiers in the fixed order Ctrl, Alt, Shift,
// Meta, followed by one non-modifier key, joined with "+". Single
// characters are upper-cased, the space bar is "Space" and named keys keep
// their name: "Ctrl+Shift+K", "Space", "Alt+Enter".
package chord

import (
	"strings"
	"unicode/utf8"
)

// Modifiers is the set of held modifier keys.
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// KeyEvent is a toolkit-independent key press.
type KeyEvent struct {
	Modifiers
	// Key is the logical key value ("k", "K", " ", "Enter", "Control").
	Key string
	// Code identifies the physical key when the host provides it.
	Code string
	// Repeat is set by hosts that fire repeat events for held keys.
	Repeat bool
}

// SpaceKey is the token for the space bar.
const SpaceKey = "Space"

var modifierKeys = map[string]bool{
	"Control": true,
	"Alt":     true,
	"Shift":   true,
	"Meta":    true,
}

// IsModifierKey reports whether key is a bare modifier.
func IsModifierKey(key string) bool {
	return modifierKeys[key]
}

func (m Modifiers) parts() []string {
	parts := make([]string, 0, 5)
	if m.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if m.Alt {
		parts = append(parts, "Alt")
	}
	if m.Shift {
		parts = append(parts, "Shift")
	}
	if m.Meta {
		parts = append(parts, "Meta")
	}
	return parts
}

// NormalizeKey maps a non-modifier key value to its chord token.
func NormalizeKey(key string) string {
	if key == " " || strings.EqualFold(key, SpaceKey) {
		return SpaceKey
	}
	key = strings.TrimSpace(key)
	if utf8.RuneCountInString(key) == 1 {
		return strings.ToUpper(key)
	}
	return key
}

// Compose builds the chord for ev. complete is false when ev carries no
// non-modifier key; chord is then the partial modifier list ("Ctrl+Shift"),
// or "" when nothing is held.
func Compose(ev KeyEvent) (chord string, complete bool) {
	mods := ev.Modifiers
	// A bare modifier press reports its own flag on some hosts and not on
	// others; count it as held either way.
	switch ev.Key {
	case "Control":
		mods.Ctrl = true
	case "Alt":
		mods.Alt = true
	case "Shift":
		mods.Shift = true
	case "Meta":
		mods.Meta = true
	}
	parts := mods.parts()

	if ev.Key == "" || IsModifierKey(ev.Key) {
		return strings.Join(parts, "+"), false
	}
	key := NormalizeKey(ev.Key)
	if key == "" {
		return strings.Join(parts, "+"), false
	}
	return strings.Join(append(parts, key), "+"), true
}
