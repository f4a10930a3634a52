package session

import (
	"context"
	"strings"

	"github.com/roach88/deckcfg/internal/assign"
	"github.com/roach88/deckcfg/internal/chord"
	"github.com/roach88/deckcfg/internal/model"
)

// KeyOutcome reports what a key press did.
type KeyOutcome struct {
	// Committed is the chord captured by this press while recording.
	Committed string
	// Fired is the binding whose action fired.
	Fired *model.Binding
	// PreventDefault asks the host to suppress the key's default effect.
	PreventDefault bool
}

// StartRecording enters chord recording.
func (s *Session) StartRecording() bool {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	return s.recorder.Start()
}

// StopRecording leaves chord recording without capturing.
func (s *Session) StopRecording() {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.recorder.Stop()
}

// RecorderState returns the recorder state and the text for the combo
// field.
func (s *Session) RecorderState() (chord.State, string) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	return s.recorder.State(), s.recorder.Display()
}

// KeyDown routes a key press to the recorder while recording and to
// dispatch otherwise.
func (s *Session) KeyDown(ev chord.KeyEvent) KeyOutcome {
	s.inputMu.Lock()
	if s.recorder.State() == chord.Recording {
		res := s.recorder.KeyDown(ev)
		out := KeyOutcome{PreventDefault: res.PreventDefault}
		if res.Committed {
			out.Committed, _ = s.recorder.Committed()
		}
		s.inputMu.Unlock()
		return out
	}
	res, matched := s.dispatcher.KeyDown(ev, s.store)
	s.inputMu.Unlock()

	out := KeyOutcome{PreventDefault: matched}
	if matched && res.Fired {
		b := res.Binding
		out.Fired = &b
		s.logger.Info("action fired", "action", b.Action, "combo", b.Combo)
		if s.sink != nil {
			s.sink(b)
		}
	}
	return out
}

// KeyUp releases a held key.
func (s *Session) KeyUp(ev chord.KeyEvent) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.dispatcher.KeyUp(ev)
}

// Press parses a chord written as text and sends one full key press
// (down and up).
func (s *Session) Press(text string) (KeyOutcome, error) {
	ev, err := chord.ParseEvent(text)
	if err != nil {
		return KeyOutcome{}, err
	}
	out := s.KeyDown(ev)
	s.KeyUp(ev)
	return out, nil
}

// Apps returns the installed apps from the last inventory refresh.
func (s *Session) Apps() []string {
	s.appsMu.RLock()
	defer s.appsMu.RUnlock()
	return append([]string(nil), s.apps...)
}

// SetApps replaces the installed-app list.
func (s *Session) SetApps(apps []string) {
	s.appsMu.Lock()
	defer s.appsMu.Unlock()
	s.apps = append([]string(nil), apps...)
}

// RefreshApps re-reads the inventory. On failure the previous list is kept
// and a notice is posted.
func (s *Session) RefreshApps(ctx context.Context) error {
	if s.inventory == nil {
		return nil
	}
	apps, err := s.inventory.ListInstalledApps(ctx)
	if err != nil {
		s.logger.Warn("inventory failed", "error", err)
		s.notices.Post(LevelError, "Error loading app list: "+err.Error())
		return err
	}
	s.SetApps(apps)
	return nil
}

// Pool returns the installed apps not in any group.
func (s *Session) Pool() []string {
	return assign.UnassignedApps(s.store.Configuration(), s.Apps())
}

func trimAction(action string) string {
	return strings.TrimSpace(action)
}
