package chord

import (
	"strings"

	"github.com/roach88/deckcfg/internal/model"
)

var modifierAliases = map[string]string{
	"ctrl":    "Control",
	"control": "Control",
	"alt":     "Alt",
	"option":  "Alt",
	"shift":   "Shift",
	"meta":    "Meta",
	"cmd":     "Meta",
	"win":     "Meta",
	"super":   "Meta",
}

var namedKeys = map[string]string{}

func init() {
	for _, k := range []string{
		"Enter", "Escape", "Tab", "Backspace", "Delete", "Insert",
		"Home", "End", "PageUp", "PageDown",
		"ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight",
		"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12",
		"CapsLock", "PrintScreen", "Pause",
	} {
		namedKeys[strings.ToLower(k)] = k
	}
	namedKeys["esc"] = "Escape"
	namedKeys["return"] = "Enter"
	namedKeys["del"] = "Delete"
}

// Parse reads a chord written as text ("ctrl+shift+k", "Alt+Enter",
// "space") and returns its normalized form. Modifier names and well-known
// key names are case-insensitive. Exactly one non-modifier key is
// required.
func Parse(text string) (string, error) {
	ev, err := ParseEvent(text)
	if err != nil {
		return "", err
	}
	chord, _ := Compose(ev)
	return chord, nil
}

// ParseEvent is Parse returning the key event that would produce the
// chord.
func ParseEvent(text string) (KeyEvent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return KeyEvent{}, model.NewValidationError(model.ReasonNoChord, "combo", text, "no chord given")
	}
	if text == "+" {
		return KeyEvent{Key: "+"}, nil
	}

	var ev KeyEvent
	for _, raw := range splitChord(text) {
		part := strings.TrimSpace(raw)
		if part == "" {
			return KeyEvent{}, model.NewValidationError(model.ReasonInvalidChord, "combo", text, "empty key in chord %q", text)
		}
		switch modifierAliases[strings.ToLower(part)] {
		case "Control":
			ev.Ctrl = true
			continue
		case "Alt":
			ev.Alt = true
			continue
		case "Shift":
			ev.Shift = true
			continue
		case "Meta":
			ev.Meta = true
			continue
		}
		if ev.Key != "" {
			return KeyEvent{}, model.NewValidationError(model.ReasonInvalidChord, "combo", text, "chord %q has more than one key", text)
		}
		if named, ok := namedKeys[strings.ToLower(part)]; ok {
			part = named
		}
		ev.Key = part
	}

	if _, complete := Compose(ev); !complete {
		return KeyEvent{}, model.NewValidationError(model.ReasonInvalidChord, "combo", text, "chord %q has no key besides modifiers", text)
	}
	return ev, nil
}

// splitChord splits on "+" while letting a trailing "+" stand for the plus
// key itself ("Ctrl++").
func splitChord(text string) []string {
	if strings.HasSuffix(text, "++") {
		parts := strings.Split(strings.TrimSuffix(text, "++"), "+")
		return append(parts, "+")
	}
	return strings.Split(text, "+")
}
