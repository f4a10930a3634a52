package chord

import "github.com/roach88/deckcfg/internal/model"

// Lookup resolves a chord to its binding.
type Lookup interface {
	LookupCombo(combo string) (model.Binding, bool)
}

// Fired describes a dispatched key press.
type Fired struct {
	Binding model.Binding
	// Fired is false for a repeat of a held key that matched a binding.
	Fired bool
}

// Dispatcher fires bound actions for live key presses, once per physical
// press. Hosts that do not flag repeats are covered by tracking held keys
// until KeyUp.
type Dispatcher struct {
	// held maps the id of each held key to its normalized key name, so a
	// KeyUp without Code still releases a key pressed with one.
	held map[string]string
}

// KeyDown dispatches ev. matched reports whether the chord belongs to a
// binding; the host should then suppress the key's default behavior.
func (d *Dispatcher) KeyDown(ev KeyEvent, lookup Lookup) (result Fired, matched bool) {
	chord, complete := Compose(ev)
	if !complete {
		return Fired{}, false
	}
	id := physicalKey(ev)
	_, down := d.held[id]
	repeat := ev.Repeat || down
	if d.held == nil {
		d.held = make(map[string]string)
	}
	d.held[id] = NormalizeKey(ev.Key)

	b, ok := lookup.LookupCombo(chord)
	if !ok {
		return Fired{}, false
	}
	return Fired{Binding: b, Fired: !repeat}, true
}

// KeyUp releases a held key. The key is matched by Code and by its
// normalized name, whichever the host sent on either event.
func (d *Dispatcher) KeyUp(ev KeyEvent) {
	if ev.Code != "" {
		delete(d.held, ev.Code)
	}
	if ev.Key == "" {
		return
	}
	key := NormalizeKey(ev.Key)
	for id, name := range d.held {
		if name == key {
			delete(d.held, id)
		}
	}
}

// Reset forgets all held keys, e.g. after the window loses focus.
func (d *Dispatcher) Reset() {
	d.held = nil
}

func physicalKey(ev KeyEvent) string {
	if ev.Code != "" {
		return ev.Code
	}
	return NormalizeKey(ev.Key)
}
