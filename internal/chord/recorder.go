package chord

import "strings"

// State is the recorder state.
type State int

const (
	// Idle: key presses go to dispatch.
	Idle State = iota
	// Recording: the next complete chord is captured.
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Recorder captures one chord for a new binding.
type Recorder struct {
	state    State
	captured string
	partial  string
}

// State returns the current state.
func (r *Recorder) State() State {
	return r.state
}

// Start enters Recording and forgets any uncommitted chord. Returns false
// if already recording.
func (r *Recorder) Start() bool {
	if r.state == Recording {
		return false
	}
	r.state = Recording
	r.captured = ""
	r.partial = ""
	return true
}

// Stop leaves Recording without capturing. A chord captured earlier is
// kept; otherwise the committed chord stays empty.
func (r *Recorder) Stop() {
	r.state = Idle
	r.partial = ""
}

// Toggle starts or stops recording.
func (r *Recorder) Toggle() State {
	if r.state == Recording {
		r.Stop()
	} else {
		r.Start()
	}
	return r.state
}

// KeyResult reports what the recorder did with a key event.
type KeyResult struct {
	// Committed is set when the event completed a chord.
	Committed bool
	// PreventDefault asks the host to suppress the key's default effect.
	PreventDefault bool
}

// KeyDown feeds a key event while recording. Bare modifiers only update
// the partial display. Anything else commits the chord and returns to
// Idle. Calling KeyDown while Idle does nothing.
func (r *Recorder) KeyDown(ev KeyEvent) KeyResult {
	if r.state != Recording {
		return KeyResult{}
	}
	res := KeyResult{PreventDefault: capturesDefault(ev)}

	chord, complete := Compose(ev)
	if !complete {
		r.partial = chord
		return res
	}
	r.captured = chord
	r.partial = ""
	r.state = Idle
	res.Committed = true
	return res
}

// Committed returns the captured chord.
func (r *Recorder) Committed() (string, bool) {
	return r.captured, r.captured != ""
}

// Display is the text shown in the combo field.
func (r *Recorder) Display() string {
	switch {
	case r.state == Recording && r.partial != "":
		return r.partial + "+..."
	case r.state == Recording:
		return "Recording..."
	default:
		return r.captured
	}
}

// Reset forgets the captured chord and returns to Idle.
func (r *Recorder) Reset() {
	*r = Recorder{}
}

// capturesDefault reports whether the host would otherwise act on the key
// (focus change, browser shortcuts) while recording.
func capturesDefault(ev KeyEvent) bool {
	if ev.Ctrl || ev.Alt || ev.Meta {
		return true
	}
	switch NormalizeKey(ev.Key) {
	case "Tab", "Escape", "Enter", SpaceKey:
		return true
	}
	return strings.HasPrefix(ev.Key, "F") || strings.HasPrefix(ev.Key, "Arrow")
}
