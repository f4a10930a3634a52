package session

import (
	"context"
	"fmt"

	"github.com/roach88/deckcfg/internal/assign"
	"github.com/roach88/deckcfg/internal/chord"
	"github.com/roach88/deckcfg/internal/entity"
	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/reconcile"
)

// Settings returns the current settings.
func (s *Session) Settings() reconcile.Settings {
	return reconcile.SettingsOf(s.store.Configuration())
}

// ApplySettings validates and applies all four settings, reconciles groups
// and slots to the new counts, then saves the configuration before
// returning. A save failure is returned but the new settings stay in
// effect.
func (s *Session) ApplySettings(ctx context.Context, next reconcile.Settings) error {
	_, err := s.store.Mutate(func(tx *entity.Tx) error {
		structural, err := reconcile.ApplySettings(tx.Configuration(), tx.Bindings(), next, s.ids)
		if err != nil {
			return err
		}
		if structural {
			tx.MarkStructural()
		} else {
			tx.TouchConfiguration()
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}
	if err := s.sync.FlushNow(ctx, model.DocConfiguration); err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	return nil
}

// RenameGroup changes a group's display name.
func (s *Session) RenameGroup(key, name string) error {
	_, err := s.store.Mutate(func(tx *entity.Tx) error {
		changed, err := reconcile.RenameGroup(tx.Configuration(), key, name)
		if changed {
			tx.TouchConfiguration()
		}
		return err
	})
	return s.reject(err)
}

// MoveApp moves app between the pool and groups.
func (s *Session) MoveApp(app string, from, to assign.Container) error {
	_, err := s.store.Mutate(func(tx *entity.Tx) error {
		changed, err := assign.MoveApp(tx.Configuration(), app, from, to)
		if changed {
			tx.TouchConfiguration()
		}
		return err
	})
	return s.reject(err)
}

// StartDrag picks up app from a container.
func (s *Session) StartDrag(app string, from assign.Container) {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.drag.Start(app, from)
}

// Drop ends the drag over target and applies the move.
func (s *Session) Drop(target assign.Container) error {
	s.inputMu.Lock()
	m, err := s.drag.Drop(target)
	s.inputMu.Unlock()
	if err != nil {
		return err
	}
	return s.MoveApp(m.App, m.From, m.To)
}

// CancelDrag abandons the drag in progress.
func (s *Session) CancelDrag() {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()
	s.drag.Cancel()
}

// AssignSlot wires slot ordinal to a binding; an empty id clears it.
func (s *Session) AssignSlot(ordinal int, bindingID string) error {
	_, err := s.store.Mutate(func(tx *entity.Tx) error {
		changed, err := reconcile.AssignSlot(tx.Configuration(), tx.Bindings(), ordinal, bindingID)
		if changed {
			tx.TouchConfiguration()
		}
		return err
	})
	return s.reject(err)
}

// AddBinding binds the recorder's captured chord to action. On success the
// recorder is reset.
func (s *Session) AddBinding(action string) (model.Binding, error) {
	s.inputMu.Lock()
	combo, _ := s.recorder.Committed()
	s.inputMu.Unlock()

	b, err := s.addBinding(combo, action)
	if err != nil {
		return b, err
	}
	s.inputMu.Lock()
	s.recorder.Reset()
	s.inputMu.Unlock()
	return b, nil
}

// AddBindingCombo binds a chord given as text ("ctrl+shift+k") to action.
func (s *Session) AddBindingCombo(text, action string) (model.Binding, error) {
	combo, err := chord.Parse(text)
	if err != nil {
		return model.Binding{}, s.reject(err)
	}
	return s.addBinding(combo, action)
}

func (s *Session) addBinding(combo, action string) (model.Binding, error) {
	var added model.Binding
	_, err := s.store.Mutate(func(tx *entity.Tx) error {
		if err := chord.ValidateBinding(tx.Bindings(), combo, action); err != nil {
			return err
		}
		added = model.Binding{ID: s.ids.BindingID(), Combo: combo, Action: trimAction(action)}
		tx.SetBindings(append(tx.Bindings(), added))
		return nil
	})
	if err != nil {
		return model.Binding{}, s.reject(err)
	}
	return added, nil
}

// DeleteBinding removes a binding and clears every slot wired to it.
func (s *Session) DeleteBinding(id string) error {
	_, err := s.store.Mutate(func(tx *entity.Tx) error {
		out, cleared, err := reconcile.DeleteBinding(tx.Configuration(), tx.Bindings(), id)
		if err != nil {
			return err
		}
		tx.SetBindings(out)
		if cleared > 0 {
			tx.TouchConfiguration()
		}
		return nil
	})
	return s.reject(err)
}

// ResolveBinding finds a binding by id or, failing that, by action name
// (case-insensitive).
func (s *Session) ResolveBinding(ref string) (model.Binding, bool) {
	bindings := s.store.Bindings()
	if i := model.FindBinding(bindings, ref); i >= 0 {
		return bindings[i], true
	}
	for _, b := range bindings {
		if model.SameName(b.Action, ref) {
			return b, true
		}
	}
	return model.Binding{}, false
}
