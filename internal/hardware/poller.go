package hardware

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is how often the controller is polled.
const DefaultInterval = 500 * time.Millisecond

// Poller polls a Source on a fixed period and keeps the latest reading.
type Poller struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger
	onUpdate func(State)

	mu     sync.RWMutex
	latest State
	polls  int
	errs   int
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the polling period. Non-positive values keep
// DefaultInterval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger for failed polls. A nil logger keeps the
// default, which discards.
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOnUpdate registers a callback run after every poll with the new
// snapshot.
func WithOnUpdate(fn func(State)) PollerOption {
	return func(p *Poller) { p.onUpdate = fn }
}

// NewPoller creates a Poller for source. It does not poll until Poll or Run
// is called.
func NewPoller(source Source, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		interval: DefaultInterval,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Latest returns the most recent snapshot.
func (p *Poller) Latest() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest.Clone()
}

// Stats reports how many polls ran and how many failed.
func (p *Poller) Stats() (polls, failures int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.polls, p.errs
}

// Poll reads the source once. A failed read keeps the previous sliders and
// buttons but marks the controller disconnected.
func (p *Poller) Poll(ctx context.Context) State {
	st, err := p.source.State(ctx)

	p.mu.Lock()
	p.polls++
	if err != nil {
		p.errs++
		p.latest.Connected = false
	} else {
		p.latest = st.Clone()
	}
	snap := p.latest.Clone()
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug("hardware poll failed", "error", err)
	}
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
	return snap
}

// Run polls immediately and then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}
