package entity

import (
	"sync"

	"github.com/roach88/deckcfg/internal/model"
)

// Stream identifies an independently persisted part of the store.
type Stream int

const (
	// StreamConfiguration is the groups/slots/settings document.
	StreamConfiguration Stream = iota + 1
	// StreamBindings is the binding list document.
	StreamBindings
)

func (s Stream) String() string {
	switch s {
	case StreamConfiguration:
		return model.DocConfiguration
	case StreamBindings:
		return model.DocBindings
	default:
		return "unknown"
	}
}

// Commit describes one successful mutation. Configuration and Bindings are
// snapshots taken at commit time and owned by the receiver.
type Commit struct {
	Configuration bool
	Bindings      bool
	// Structural is set when group or slot counts changed.
	Structural bool

	Snapshot         model.Configuration
	BindingsSnapshot []model.Binding
	Generations      map[Stream]uint64
}

// Touches reports whether the commit changed stream.
func (c Commit) Touches(stream Stream) bool {
	switch stream {
	case StreamConfiguration:
		return c.Configuration
	case StreamBindings:
		return c.Bindings
	}
	return false
}

// Observer receives every commit. It runs after the store lock is released
// but before the next mutation may start; it must not call Mutate.
type Observer func(Commit)

// Store is the Entity Store.
//
// Thread-safety model:
//   - Configuration(), Bindings(), LookupCombo(): safe from any goroutine
//   - Mutate(): safe from any goroutine; calls are serialized
//   - Replace*(): intended for session load, serialized with Mutate
type Store struct {
	mutateMu sync.Mutex // serializes Mutate/Replace including observer calls

	mu          sync.RWMutex
	cfg         model.Configuration
	bindings    []model.Binding
	generations map[Stream]uint64
	dirty       map[Stream]bool
	observer    Observer
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers the commit observer (normally the sync wiring).
func WithObserver(obs Observer) Option {
	return func(s *Store) {
		s.observer = obs
	}
}

// New creates a store holding the default configuration and no bindings.
func New(opts ...Option) *Store {
	s := &Store{
		cfg:         model.DefaultConfiguration(),
		bindings:    []model.Binding{},
		generations: make(map[Stream]uint64),
		dirty:       make(map[Stream]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetObserver replaces the commit observer.
func (s *Store) SetObserver(obs Observer) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	s.observer = obs
}

// Configuration returns a read-only snapshot.
func (s *Store) Configuration() model.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Bindings returns a snapshot of the binding list.
func (s *Store) Bindings() []model.Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneBindings(s.bindings)
}

// LookupCombo returns the binding whose combo equals combo exactly.
func (s *Store) LookupCombo(combo string) (model.Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bindings {
		if b.Combo == combo {
			return b, true
		}
	}
	return model.Binding{}, false
}

// Generation returns the commit generation of stream.
func (s *Store) Generation(stream Stream) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations[stream]
}

// Dirty reports whether stream has commits not yet confirmed durable.
func (s *Store) Dirty(stream Stream) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty[stream]
}

// MarkDurable records that the payload of generation gen reached the
// backend. Returns true if that made the stream clean; a generation older
// than the latest commit leaves the stream dirty.
func (s *Store) MarkDurable(stream Stream, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generations[stream] {
		return false
	}
	s.dirty[stream] = false
	return true
}

// ReplaceBindings installs a loaded binding list wholesale, dropping
// malformed or duplicate entries. The bindings stream is left clean.
func (s *Store) ReplaceBindings(bindings []model.Binding) []*model.InvariantViolation {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	repaired, issues := repairBindings(bindings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings = repaired
	s.generations[StreamBindings]++
	s.dirty[StreamBindings] = false
	return issues
}

// ReplaceConfiguration installs a loaded configuration wholesale. Invalid
// references are dropped rather than failing the load, then groups and
// slots are brought to the loaded counts. The configuration stream is
// left clean.
//
// Call ReplaceBindings first so slot references are checked against the
// loaded bindings.
func (s *Store) ReplaceConfiguration(cfg model.Configuration, ids model.IDGenerator) []*model.InvariantViolation {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	working := cfg.Clone()
	issues := repairConfiguration(&working, s.bindings, ids)
	s.cfg = working
	s.generations[StreamConfiguration]++
	s.dirty[StreamConfiguration] = false
	return issues
}

// Mutate applies fn to a working copy and commits it if fn succeeds and
// touched at least one stream. Returns the commit (zero when nothing was
// committed) and fn's error.
func (s *Store) Mutate(fn func(tx *Tx) error) (Commit, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	s.mu.Lock()
	tx := &Tx{
		cfg:      s.cfg.Clone(),
		bindings: model.CloneBindings(s.bindings),
	}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return Commit{}, err
	}
	if !tx.config && !tx.binds {
		s.mu.Unlock()
		return Commit{}, nil
	}

	commit := Commit{
		Configuration: tx.config,
		Bindings:      tx.binds,
		Structural:    tx.structural,
		Generations:   make(map[Stream]uint64, 2),
	}
	if tx.config {
		s.cfg = tx.cfg
		s.generations[StreamConfiguration]++
		s.dirty[StreamConfiguration] = true
	}
	if tx.binds {
		s.bindings = tx.bindings
		s.generations[StreamBindings]++
		s.dirty[StreamBindings] = true
	}
	commit.Snapshot = s.cfg.Clone()
	commit.BindingsSnapshot = model.CloneBindings(s.bindings)
	commit.Generations[StreamConfiguration] = s.generations[StreamConfiguration]
	commit.Generations[StreamBindings] = s.generations[StreamBindings]
	obs := s.observer
	s.mu.Unlock()

	if obs != nil {
		obs(commit)
	}
	return commit, nil
}
