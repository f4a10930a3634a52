package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultWindow is the quiet window used when none is configured.
const DefaultWindow = 500 * time.Millisecond

// SaveFunc persists one payload.
type SaveFunc func(ctx context.Context, payload any) error

// Outcome reports the result of one save attempt.
type Outcome struct {
	Stream  string
	Payload any
	Err     error
}

// ErrUnknownStream is returned for a stream that was never registered.
var ErrUnknownStream = errors.New("unknown stream")

// Scheduler debounces and serializes saves per stream.
//
// Thread-safety: all methods are safe for concurrent use. Timer callbacks
// run on the clock's goroutine and flush with the scheduler's base context.
type Scheduler struct {
	clock     Clock
	window    time.Duration
	logger    *slog.Logger
	onOutcome func(Outcome)
	baseCtx   context.Context

	mu      sync.Mutex
	streams map[string]*stream
	closed  bool
}

type stream struct {
	name string
	save SaveFunc

	// send is held for the duration of a save.
	send sync.Mutex

	// Guarded by Scheduler.mu.
	timer      Timer
	pending    any
	hasPending bool
	inFlight   bool
	saves      int
	failures   int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the timer source (default SystemClock).
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithWindow sets the quiet window. Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithOutcome registers a callback invoked after every save attempt,
// outside all scheduler locks.
func WithOutcome(fn func(Outcome)) Option {
	return func(s *Scheduler) {
		s.onOutcome = fn
	}
}

// WithContext sets the context used by timer-triggered saves.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) {
		s.baseCtx = ctx
	}
}

// New creates a Scheduler with no streams.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   SystemClock{},
		window:  DefaultWindow,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseCtx: context.Background(),
		streams: make(map[string]*stream),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the quiet window.
func (s *Scheduler) Window() time.Duration {
	return s.window
}

// Register adds a stream. Registering a name twice replaces its save
// function.
func (s *Scheduler) Register(name string, save SaveFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streams[name]; ok {
		st.save = save
		return
	}
	s.streams[name] = &stream{name: name, save: save}
}

// Schedule records payload as the newest state of the stream and restarts
// its quiet window.
func (s *Scheduler) Schedule(name string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[name]
	if !ok {
		return fmt.Errorf("schedule %q: %w", name, ErrUnknownStream)
	}
	st.pending = payload
	st.hasPending = true
	if s.closed {
		return nil
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = s.clock.AfterFunc(s.window, func() {
		if err := s.flush(s.baseCtx, st); err != nil {
			s.logger.Debug("debounced save failed", "stream", st.name, "error", err)
		}
	})
	return nil
}

// FlushNow sends the newest pending payload of the stream, bypassing the
// quiet window, and returns the save result. A nil result with nothing
// pending means there was nothing to send.
func (s *Scheduler) FlushNow(ctx context.Context, name string) error {
	s.mu.Lock()
	st, ok := s.streams[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("flush %q: %w", name, ErrUnknownStream)
	}
	return s.flush(ctx, st)
}

// SaveNow records payload and sends it immediately.
func (s *Scheduler) SaveNow(ctx context.Context, name string, payload any) error {
	s.mu.Lock()
	st, ok := s.streams[name]
	if ok {
		st.pending = payload
		st.hasPending = true
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("save %q: %w", name, ErrUnknownStream)
	}
	return s.flush(ctx, st)
}

func (s *Scheduler) flush(ctx context.Context, st *stream) error {
	st.send.Lock()

	s.mu.Lock()
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	if !st.hasPending {
		s.mu.Unlock()
		st.send.Unlock()
		return nil
	}
	payload := st.pending
	st.pending = nil
	st.hasPending = false
	st.inFlight = true
	s.mu.Unlock()

	err := st.save(ctx, payload)

	s.mu.Lock()
	st.inFlight = false
	if err != nil {
		st.failures++
		// Keep the failed payload only if nothing newer replaced it.
		if !st.hasPending {
			st.pending = payload
			st.hasPending = true
		}
	} else {
		st.saves++
	}
	s.mu.Unlock()
	st.send.Unlock()

	if err != nil {
		s.logger.Error("save failed", "stream", st.name, "error", err)
	} else {
		s.logger.Debug("saved", "stream", st.name)
	}
	if s.onOutcome != nil {
		s.onOutcome(Outcome{Stream: st.name, Payload: payload, Err: err})
	}
	return err
}

// Status is a point-in-time view of one stream.
type Status struct {
	Pending  bool
	Armed    bool
	InFlight bool
	Saves    int
	Failures int
}

// Status returns the state of a stream.
func (s *Scheduler) Status(name string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[name]
	if !ok {
		return Status{}
	}
	return Status{
		Pending:  st.hasPending,
		Armed:    st.timer != nil,
		InFlight: st.inFlight,
		Saves:    st.saves,
		Failures: st.failures,
	}
}

// Close stops all timers and flushes every stream with pending state.
// Later Schedule calls record payloads without arming timers. Returns the
// joined flush errors.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	streams := make([]*stream, 0, len(s.streams))
	for _, st := range s.streams {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		streams = append(streams, st)
	}
	s.mu.Unlock()

	var errs []error
	for _, st := range streams {
		if err := s.flush(ctx, st); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", st.name, err))
		}
	}
	return errors.Join(errs...)
}
